package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/idx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

var ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")

// generatedPasswordLength is used when no admin password is configured.
const generatedPasswordLength = 20

type Hasher interface {
	Hash(password string) (string, error)
}

// BootstrapService seeds the first admin on an empty directory so a fresh
// deployment can sign in.
type BootstrapService struct {
	Store  store.Store
	Hasher Hasher

	AdminUsername string
	AdminPassword string
	AdminRoles    []string
}

// SeedAdmin creates the configured admin if the directory has no users. It
// reports whether a user was created. With no admin username configured
// it does nothing.
func (s *BootstrapService) SeedAdmin(ctx context.Context) (bool, error) {
	l := slogx.FromContext(ctx)

	if s.AdminUsername == "" {
		return false, nil
	}

	password := s.AdminPassword
	generated := password == ""
	if generated {
		var err error
		if password, err = cryptox.GeneratePassword(generatedPasswordLength); err != nil {
			return false, err
		}
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	roles := s.AdminRoles
	if len(roles) == 0 {
		roles = []string{"ADMIN"}
	}

	created := false
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil || !empty {
			return err
		}

		u := domain.User{
			ID:           idx.New().String(),
			Username:     s.AdminUsername,
			PasswordHash: hash,
			Roles:        roles,
			Enabled:      true,
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			l.Error("failed to create admin user", slog.String("admin_user_id", u.ID), slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !created {
		l.Debug("directory already populated, skipping admin seed")
		return false, nil
	}

	if generated {
		// Shown once; it is not stored anywhere in clear text.
		l.Warn("seeded admin with generated password",
			slog.String("username", s.AdminUsername),
			slog.String("password", password),
		)
	} else {
		l.Info("seeded admin user", slog.String("username", s.AdminUsername))
	}
	return true, nil
}
