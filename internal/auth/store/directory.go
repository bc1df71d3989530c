package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

var ErrUserDisabled = errors.New("store: user disabled")

// PasswordHasher is the part of cryptox.PasswordHasher the directory needs.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error
	NeedsRehash(encoded string) bool
}

var _ PasswordHasher = (*cryptox.PasswordHasher)(nil)

// Directory adapts a Store to the lookups the auth core performs: the
// interceptor's httpx.Directory, and the orchestrator's user directory and
// credential verifier.
type Directory struct {
	store  Store
	hasher PasswordHasher

	// decoyHash is verified against when there is no usable user, so
	// Check costs the same whether or not the username exists.
	decoyOnce sync.Once
	decoyHash string
}

func NewDirectory(s Store, hasher PasswordHasher) *Directory {
	return &Directory{store: s, hasher: hasher}
}

// FindByUsername returns the user or ErrNotFound.
func (d *Directory) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.store.Users().GetUserByUsername(ctx, username)
}

// FindRoles implements httpx.Directory. Unknown and disabled users both
// report httpx.ErrPrincipalNotFound.
func (d *Directory) FindRoles(ctx context.Context, username string) ([]string, error) {
	u, err := d.store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", httpx.ErrPrincipalNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, fmt.Errorf("%w: %w", httpx.ErrPrincipalNotFound, ErrUserDisabled)
	}
	return u.Roles, nil
}

// Check verifies a password for username. A legacy hash is replaced with a
// fresh argon2id one after a successful check; failing to store it is
// logged and does not fail the check.
func (d *Directory) Check(ctx context.Context, username, password string) error {
	u, err := d.store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		d.verifyDecoy(password)
		return err
	}
	if err != nil {
		return err
	}
	if !u.Enabled {
		d.verifyDecoy(password)
		return ErrUserDisabled
	}
	if err := d.hasher.Verify(password, u.PasswordHash); err != nil {
		return err
	}

	if d.hasher.NeedsRehash(u.PasswordHash) {
		d.rehash(ctx, u, password)
	}
	return nil
}

func (d *Directory) verifyDecoy(password string) {
	d.decoyOnce.Do(func() {
		d.decoyHash, _ = d.hasher.Hash("decoy-password-never-matches")
	})
	if d.decoyHash != "" {
		_ = d.hasher.Verify(password, d.decoyHash)
	}
}

func (d *Directory) rehash(ctx context.Context, u domain.User, password string) {
	log := slogx.FromContext(ctx)

	hash, err := d.hasher.Hash(password)
	if err != nil {
		log.Warn("failed to rehash legacy password", "user_id", u.ID, "err", err)
		return
	}
	if err := d.store.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		log.Warn("failed to store rehashed password", "user_id", u.ID, "err", err)
		return
	}
	log.Info("upgraded legacy password hash", "user_id", u.ID)
}
