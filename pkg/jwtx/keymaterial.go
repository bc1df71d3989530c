package jwtx

import (
	"encoding/base64"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSecret is the placeholder secret the service falls back to when
// none is configured. Tokens signed with it are forgeable by anyone who
// knows the default, so deployments must override it.
const DefaultSecret = "secret"

// KeyMaterial holds the HMAC signing key. It is built once at startup and
// handed to the Provider by value; nothing mutates it afterwards.
//
// The HMAC key is the standard base64 encoding of the raw secret, not the
// raw bytes. Tokens minted by earlier deployments for the same secret
// therefore keep verifying.
type KeyMaterial struct {
	raw     string
	encoded string
	method  *jwt.SigningMethodHMAC
}

// NewKeyMaterial derives the signing key from secret.
func NewKeyMaterial(secret string) (KeyMaterial, error) {
	if secret == "" {
		return KeyMaterial{}, ErrEmptySecret
	}
	return KeyMaterial{
		raw:     secret,
		encoded: base64.StdEncoding.EncodeToString([]byte(secret)),
		method:  jwt.SigningMethodHS256,
	}, nil
}

// Algorithm returns the JWS "alg" value, always HS256.
func (k KeyMaterial) Algorithm() string {
	if k.method == nil {
		return ""
	}
	return k.method.Alg()
}

// IsZero reports whether the key was never initialised.
func (k KeyMaterial) IsZero() bool { return k.method == nil }

// IsDefault reports whether the key was derived from DefaultSecret.
func (k KeyMaterial) IsDefault() bool { return k.raw == DefaultSecret }

// EncodedSecret returns the derived key string.
func (k KeyMaterial) EncodedSecret() string { return k.encoded }

func (k KeyMaterial) key() []byte { return []byte(k.encoded) }
