package jwtx

import (
	"errors"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformedToken = errors.New("jwtx: malformed token")
	ErrBadSignature   = errors.New("jwtx: invalid signature")
	ErrExpiredToken   = errors.New("jwtx: token expired")

	ErrEmptySecret = errors.New("jwtx: signing secret is empty")
)

// TokenErrorKind tags a verification failure so callers can switch on it
// without chaining errors.Is checks.
type TokenErrorKind int

const (
	KindNone TokenErrorKind = iota
	KindMalformed
	KindBadSignature
	KindExpired
	KindUnknown
)

func (k TokenErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformed:
		return "malformed"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// KindOf classifies an error returned by Verify or Refresh.
func KindOf(err error) TokenErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrExpiredToken):
		return KindExpired
	case errors.Is(err, ErrBadSignature):
		return KindBadSignature
	case errors.Is(err, ErrMalformedToken):
		return KindMalformed
	default:
		return KindUnknown
	}
}
