package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the access token lifetime used when none is
	// configured (3,600,000 ms).
	DefaultAccessTokenTTL = time.Hour

	// RefreshTTLMultiplier fixes the refresh token lifetime relative to the
	// access token lifetime.
	RefreshTTLMultiplier = 3
)

// Claims carried by both access and refresh tokens. Access tokens set the
// issuer, refresh tokens leave it empty so "iss" is omitted on the wire.
type Claims struct {
	jwt.RegisteredClaims

	// Roles granted to the subject at issuance time, in directory order.
	Roles []string `json:"roles"`
}

// NewAccessClaims builds access token claims expiring ttl after now.
func NewAccessClaims(username string, roles []string, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: cloneRoles(roles),
	}
}

// NewRefreshClaims builds refresh token claims. There is no issuer and the
// lifetime is RefreshTTLMultiplier times the access ttl.
func NewRefreshClaims(username string, roles []string, accessTTL time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTTLMultiplier * accessTTL)),
		},
		Roles: cloneRoles(roles),
	}
}

// ValidateExpiry reports ErrExpiredToken once now has reached exp. A token
// is valid only while now < exp.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrMalformedToken
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpiredToken
	}
	return nil
}

// HasIssuer is true for access tokens.
func (c *Claims) HasIssuer() bool { return c.Issuer != "" }

func cloneRoles(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}
