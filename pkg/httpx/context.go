package httpx

import (
	"context"
	"slices"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyRoles     ctxKey = "roles"
	CtxKeyPrincipal ctxKey = "principal"
)

// Principal is the authenticated identity attached to a request. It lives
// only as long as the request context.
type Principal struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the principal was granted role.
func (p Principal) HasAuthority(role string) bool {
	return slices.Contains(p.Authorities, role)
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, p.Username)
	ctx = context.WithValue(ctx, CtxKeyRoles, p.Authorities)
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	return ctx
}

// PrincipalFromContext returns the principal set by AuthnMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}

func authoritiesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}
