package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

var ErrAuthorizationDenied = errors.New("httpx: authorization denied")

// Authorize checks the caller on ctx against what policy requires of path.
func Authorize(ctx context.Context, policy RoutePolicy, path string) error {
	switch policy.Classify(path) {
	case AccessPublic:
		return nil
	case AccessDenied:
		return ErrAuthorizationDenied
	default:
		if _, ok := PrincipalFromContext(ctx); !ok {
			return ErrAuthorizationDenied
		}
		return nil
	}
}

// PolicyMiddleware enforces policy after AuthnMiddleware has run. Both
// denied routes and anonymous calls to protected routes get 403.
func PolicyMiddleware(policy RoutePolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(r.Context(), policy, r.URL.Path); err != nil {
				slogx.FromContext(r.Context()).Info("request denied", "err", err)
				writeAccessDenied(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyAuthority the caller must hold at least one of the roles.
func RequireAnyAuthority(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, have := range authoritiesFromCtx(r.Context()) {
				if _, ok := want[have]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAccessDenied(w, "requires one of: "+strings.Join(required, " "))
		})
	}
}

func writeAccessDenied(w http.ResponseWriter, desc string) {
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             "access_denied",
		"error_description": desc,
	})
}
