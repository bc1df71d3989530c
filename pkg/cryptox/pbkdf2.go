package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Legacy PBKDF2 hashes are hex(salt || PBKDF2-HMAC-SHA256(password, salt)),
// optionally tagged with pbkdf2Prefix.
const (
	pbkdf2Prefix     = "{pbkdf2}"
	pbkdf2SaltLen    = 8
	pbkdf2Iterations = 185000
	pbkdf2KeyLen     = 32
)

func verifyPBKDF2(password, hexed string) error {
	raw, err := hex.DecodeString(hexed)
	if err != nil {
		return fmt.Errorf("%w: pbkdf2 hex: %w", ErrUnsupportedHash, err)
	}
	if len(raw) != pbkdf2SaltLen+pbkdf2KeyLen {
		return fmt.Errorf("%w: pbkdf2 length %d", ErrUnsupportedHash, len(raw))
	}

	salt, want := raw[:pbkdf2SaltLen], raw[pbkdf2SaltLen:]
	got := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// HashPBKDF2 produces a tagged legacy hash. Only fixtures and migrations
// of old data need it; new passwords use PasswordHasher.Hash.
func HashPBKDF2(password string, salt []byte) (string, error) {
	if len(salt) != pbkdf2SaltLen {
		return "", fmt.Errorf("cryptox: pbkdf2 salt must be %d bytes", pbkdf2SaltLen)
	}
	sum := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return pbkdf2Prefix + hex.EncodeToString(append(append([]byte{}, salt...), sum...)), nil
}

func isLegacyHex(s string) bool {
	if len(s) != 2*(pbkdf2SaltLen+pbkdf2KeyLen) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
