package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	h := NewPasswordHasher("pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), ErrPasswordMismatch)
			require.False(t, h.NeedsRehash(hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h := NewPasswordHasher("")

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerify_PepperMatters(t *testing.T) {
	hash, err := NewPasswordHasher("one").Hash("hunter2")
	require.NoError(t, err)

	require.ErrorIs(t, NewPasswordHasher("two").Verify("hunter2", hash), ErrPasswordMismatch)
}

func TestVerify_PBKDF2(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	tagged, err := HashPBKDF2("admin123", salt)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(tagged, "{pbkdf2}"))
	require.Len(t, strings.TrimPrefix(tagged, "{pbkdf2}"), 80)

	// The pepper never applies to legacy hashes.
	h := NewPasswordHasher("pepper")

	t.Run("tagged", func(t *testing.T) {
		require.NoError(t, h.Verify("admin123", tagged))
		require.ErrorIs(t, h.Verify("admin124", tagged), ErrPasswordMismatch)
	})

	t.Run("bare hex", func(t *testing.T) {
		bare := strings.TrimPrefix(tagged, "{pbkdf2}")
		require.NoError(t, h.Verify("admin123", bare))
	})

	require.True(t, h.NeedsRehash(tagged))

	_, err = HashPBKDF2("x", []byte{1})
	require.Error(t, err)
}

func TestVerify_InvalidFormats(t *testing.T) {
	h := NewPasswordHasher("")

	for name, encoded := range map[string]string{
		"empty":            "",
		"plain text":       "password",
		"bcrypt":           "$2a$10$abcdefghijklmnopqrstuv",
		"argon2 too short": "$argon2id$v=19$m=1,t=1,p=1$salt",
		"argon2 version":   "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"argon2 params":    "$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"argon2 salt":      "$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
		"pbkdf2 not hex":   "{pbkdf2}zz",
		"pbkdf2 short":     "{pbkdf2}0102",
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, h.Verify("password", encoded), ErrUnsupportedHash)
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		pw, err := GeneratePassword(16)
		require.NoError(t, err)
		require.Len(t, pw, 16)
		for _, c := range pw {
			require.True(t, (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
		}
		seen[pw] = struct{}{}
	}
	require.Len(t, seen, 50)
}

func TestLoadPepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadPepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadPepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "pepper is stable across restarts")
}
