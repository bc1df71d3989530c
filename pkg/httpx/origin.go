package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// RequestOrigin returns scheme://host for r, honouring X-Forwarded-Proto
// and X-Forwarded-Host when a proxy set them.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}

	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = strings.TrimSpace(strings.Split(h, ",")[0])
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}

// OriginMiddleware stores the request origin as the token issuer so access
// tokens minted during the request carry it in "iss".
func OriginMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := jwtx.WithIssuer(r.Context(), RequestOrigin(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
