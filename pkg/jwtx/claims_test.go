package jwtx_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateExpiry(t *testing.T) {
	exp := t0.Add(time.Minute)
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t.Run("before exp", func(t *testing.T) {
		require.NoError(t, c.ValidateExpiry(exp.Add(-time.Nanosecond)))
	})

	t.Run("at exp", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateExpiry(exp), jwtx.ErrExpiredToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		empty := &jwtx.Claims{}
		require.ErrorIs(t, empty.ValidateExpiry(t0), jwtx.ErrMalformedToken)
	})
}

func TestNewClaimsCopyRoles(t *testing.T) {
	roles := []string{"ADMIN", "MANAGER"}
	access := jwtx.NewAccessClaims("alice", roles, "iss", time.Hour, t0)
	refresh := jwtx.NewRefreshClaims("alice", roles, time.Hour, t0)

	roles[0] = "MUTATED"
	require.Equal(t, []string{"ADMIN", "MANAGER"}, access.Roles)
	require.Equal(t, []string{"ADMIN", "MANAGER"}, refresh.Roles)

	require.Equal(t, "iss", access.Issuer)
	require.Empty(t, refresh.Issuer)
	require.Equal(t, t0.Add(3*time.Hour), refresh.ExpiresAt.Time.UTC())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind jwtx.TokenErrorKind
	}{
		{nil, jwtx.KindNone},
		{jwtx.ErrMalformedToken, jwtx.KindMalformed},
		{fmt.Errorf("%w: bad", jwtx.ErrBadSignature), jwtx.KindBadSignature},
		{jwtx.ErrExpiredToken, jwtx.KindExpired},
		{errors.New("other"), jwtx.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.kind, jwtx.KindOf(tt.err))
		})
	}
}
