package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// Authentication outcomes reported to an OutcomeRecorder.
const (
	OutcomeAnonymous        = "anonymous"
	OutcomeAuthenticated    = "authenticated"
	OutcomeMalformed        = "malformed"
	OutcomeBadSignature     = "bad_signature"
	OutcomeExpired          = "expired"
	OutcomeUnknownPrincipal = "unknown_principal"
	OutcomeDirectoryError   = "directory_error"
	OutcomeWrongTokenKind   = "wrong_token_kind"
)

// ErrPrincipalNotFound is what a Directory returns for an unknown username.
var ErrPrincipalNotFound = errors.New("httpx: principal not found")

// Directory resolves the current authorities of a username. Any error
// leaves the request unauthenticated.
type Directory interface {
	FindRoles(ctx context.Context, username string) ([]string, error)
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func(ctx context.Context, username string) ([]string, error)

func (f DirectoryFunc) FindRoles(ctx context.Context, username string) ([]string, error) {
	return f(ctx, username)
}

// OutcomeRecorder counts what the interceptor decided for each request.
type OutcomeRecorder interface {
	ObserveAuthn(outcome string)
}

type AuthnOption func(*authnOptions)

type authnOptions struct {
	tokenRoles bool
	recorder   OutcomeRecorder
}

// WithTokenRoles grants the roles embedded in the token instead of asking
// the directory. The directory passed to AuthnMiddleware may then be nil.
func WithTokenRoles() AuthnOption {
	return func(o *authnOptions) { o.tokenRoles = true }
}

// WithOutcomeRecorder reports every request outcome to r.
func WithOutcomeRecorder(r OutcomeRecorder) AuthnOption {
	return func(o *authnOptions) { o.recorder = r }
}

// AuthnMiddleware resolves a bearer token into a Principal on the request
// context. It never rejects a request: a missing or invalid token, or an
// unknown subject, just leaves the request anonymous. Whether anonymous
// requests may proceed is decided later by PolicyMiddleware.
func AuthnMiddleware(v jwtx.Verifier, dir Directory, opts ...AuthnOption) Middleware {
	var o authnOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, outcome := authenticate(ctx, v, dir, o, r.Header.Get("Authorization"))
			if o.recorder != nil {
				o.recorder.ObserveAuthn(outcome)
			}

			if outcome == OutcomeAuthenticated {
				ctx = WithPrincipal(ctx, p)
				ctx = slogx.WithAttrs(ctx, "user", p.Username)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(ctx context.Context, v jwtx.Verifier, dir Directory, o authnOptions, header string) (Principal, string) {
	log := slogx.FromContext(ctx)

	raw, ok := jwtx.ResolveFromHeader(header)
	if !ok {
		return Principal{}, OutcomeAnonymous
	}

	claims, err := v.Verify(raw)
	if err != nil {
		kind := jwtx.KindOf(err)
		log.Debug("bearer token rejected", "kind", kind.String(), "token_fp", cryptox.FingerprintToken(raw), "err", err)
		return Principal{}, outcomeFor(kind)
	}

	// Refresh tokens carry no issuer and only buy a new pair.
	if !claims.HasIssuer() {
		log.Debug("refresh token used as bearer", "username", claims.Subject, "token_fp", cryptox.FingerprintToken(raw))
		return Principal{}, OutcomeWrongTokenKind
	}

	if o.tokenRoles {
		return Principal{Username: claims.Subject, Authorities: claims.Roles}, OutcomeAuthenticated
	}

	roles, err := dir.FindRoles(ctx, claims.Subject)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		log.Info("token subject not in directory", "username", claims.Subject)
		return Principal{}, OutcomeUnknownPrincipal
	case err != nil:
		log.Warn("principal lookup failed", "username", claims.Subject, "err", err)
		return Principal{}, OutcomeDirectoryError
	}
	if roles == nil {
		roles = []string{}
	}

	return Principal{Username: claims.Subject, Authorities: roles}, OutcomeAuthenticated
}

func outcomeFor(kind jwtx.TokenErrorKind) string {
	switch kind {
	case jwtx.KindExpired:
		return OutcomeExpired
	case jwtx.KindBadSignature:
		return OutcomeBadSignature
	default:
		return OutcomeMalformed
	}
}
