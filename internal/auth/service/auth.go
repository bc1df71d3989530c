package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// BadCredentialsMessage is the only thing a failed signin ever reveals.
const BadCredentialsMessage = "Invalid username/password supplied!"

var (
	// ErrBadCredentials covers every signin failure: unknown user, wrong
	// password, disabled account and lookup errors alike.
	ErrBadCredentials = errors.New(BadCredentialsMessage)

	// ErrUserNotFound is returned by RefreshToken for an unknown username.
	ErrUserNotFound = errors.New("service: user not found")
)

// UserDirectory looks users up by username, returning store.ErrNotFound
// when there is no such user.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {
	Check(ctx context.Context, username, password string) error
}

// TokenIssuer is implemented by *jwtx.Provider.
type TokenIssuer interface {
	Issue(ctx context.Context, username string, roles []string) (jwtx.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (jwtx.TokenPair, error)
}

var _ TokenIssuer = (*jwtx.Provider)(nil)

type AuthService struct {
	Directory   UserDirectory
	Credentials CredentialVerifier
	Tokens      TokenIssuer
}

// Signin checks credentials and issues a token pair carrying the user's
// directory roles. Callers cannot tell why a signin failed.
func (s *AuthService) Signin(ctx context.Context, username, password string) (jwtx.TokenPair, error) {
	log := slogx.FromContext(ctx).With("username", username)

	if err := s.Credentials.Check(ctx, username, password); err != nil {
		log.Info("signin rejected", "err", err)
		return jwtx.TokenPair{}, ErrBadCredentials
	}

	u, err := s.Directory.FindByUsername(ctx, username)
	if err != nil {
		log.Warn("signin directory lookup failed", "err", err)
		return jwtx.TokenPair{}, ErrBadCredentials
	}

	pair, err := s.Tokens.Issue(ctx, u.Username, u.Roles)
	if err != nil {
		log.Error("failed to issue tokens", "err", err)
		return jwtx.TokenPair{}, ErrBadCredentials
	}

	log.Info("signin succeeded")
	return pair, nil
}

// RefreshToken re-issues a pair from refreshToken once username is known
// to the directory and enabled. Unlike Signin, an unknown or disabled user
// is reported as ErrUserNotFound, and token errors are returned as they are.
//
// The token's subject is not compared with username. In directory-role
// mode a pair for a deleted subject is still refused by the interceptor;
// with token roles it is not.
func (s *AuthService) RefreshToken(ctx context.Context, username, refreshToken string) (jwtx.TokenPair, error) {
	log := slogx.FromContext(ctx).With("username", username)

	u, err := s.Directory.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("refresh for unknown user")
		return jwtx.TokenPair{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	case err != nil:
		return jwtx.TokenPair{}, err
	case !u.Enabled:
		log.Info("refresh for disabled user")
		return jwtx.TokenPair{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	pair, err := s.Tokens.Refresh(ctx, refreshToken)
	if err != nil {
		log.Info("refresh rejected", "kind", jwtx.KindOf(err).String(), "err", err)
		return jwtx.TokenPair{}, err
	}
	return pair, nil
}
