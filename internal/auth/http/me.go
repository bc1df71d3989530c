package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// MeHandler returns the principal the authentication middleware resolved.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		if !ok {
			authsdk.ErrAccessDenied.WriteError(w)
			return
		}

			httpx.WriteJSON(w, http.StatusOK, authsdk.PrincipalResponse{
			Username:    p.Username,
			Authorities: p.Authorities,
		})
	}
}

// UserLookup finds a directory entry by username.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// UserHandler serves GET /api/v1/users/{username}.
type UserHandler struct {
	Users UserLookup
}

func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")

	u, err := h.Users.FindByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
		return
	default:
		slogx.FromContext(ctx).Warn("failed to load user", "username", username, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     roles,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}
