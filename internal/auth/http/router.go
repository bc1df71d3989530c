package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/metricx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// RouterOptions carries what the router needs from the application.
type RouterOptions struct {
	Verifier  jwtx.Verifier
	Keys      jwtx.KeyMaterial
	Directory httpx.Directory
	Policy    httpx.RoutePolicy
	Metrics   *metricx.Metrics

	// Issuer pins the "iss" claim. When empty the request origin is used.
	Issuer       string
	BuildVersion string
	Logger       *slog.Logger

	// TokenRoles makes the interceptor trust roles carried in the token
	// instead of looking them up on every request.
	TokenRoles bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	opts      RouterOptions
	startTime time.Time

	Auth  Authenticator
	Users UserLookup
	DB    Pinger
}

func NewRouter(opts RouterOptions) *Router {
	if opts.Policy == nil {
		opts.Policy = httpx.DefaultPolicy()
	}
	if opts.Metrics == nil {
		opts.Metrics = metricx.New(false)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Router{
		Mux:       http.NewServeMux(),
		opts:      opts,
		startTime: time.Now(),
	}
}

// ApplyRoutes registers every route and builds the global chain. It must be
// called once, after Auth, Users and DB are set.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAPI()
	r.registerSystem()

	authnOpts := []httpx.AuthnOption{httpx.WithOutcomeRecorder(r.opts.Metrics)}
	if r.opts.TokenRoles {
		authnOpts = append(authnOpts, httpx.WithTokenRoles())
	}

	mws := []httpx.Middleware{
		slogx.HTTPMiddleware(r.opts.Logger),
		r.opts.Metrics.Middleware(),
	}
	if r.opts.Issuer == "" {
		mws = append(mws, httpx.OriginMiddleware())
	}
	mws = append(mws,
		httpx.AuthnMiddleware(r.opts.Verifier, r.opts.Directory, authnOpts...),
		httpx.PolicyMiddleware(r.opts.Policy),
	)

	r.handler = httpx.Chain(r.Mux, mws...)
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Limited per IP and username so one client cannot lock out others.
	r.Mux.Handle("POST /auth/signin",
		httpx.Chain(&SigninHandler{Auth: r.Auth, Results: r.opts.Metrics},
			httpx.RateLimitByIPAndJSONField(httpx.SigninLimit, "username"),
		),
	)

	r.Mux.Handle("PUT /auth/refresh/{username}",
		httpx.Chain(&RefreshHandler{Auth: r.Auth, Results: r.opts.Metrics},
			httpx.RateLimitByIPAndPathValue(httpx.RefreshLimit, "username"),
		),
	)
}

func (r *Router) registerAPI() {
	r.Mux.Handle("GET /api/v1/me",
		httpx.Chain(MeHandler(),
			httpx.RateLimitByUser(httpx.APILimit),
		),
	)

	r.Mux.Handle("GET /api/v1/users/{username}",
		httpx.Chain(&UserHandler{Users: r.Users},
			httpx.RequireAnyAuthority("ADMIN"),
			httpx.RateLimitByUser(httpx.APILimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.opts.BuildVersion),
			httpx.RateLimitByIP(httpx.ProbeLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.opts.BuildVersion, r.DB, r.opts.Keys),
			httpx.RateLimitByIP(httpx.ProbeLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(r.opts.Metrics.Handler(),
			httpx.RateLimitByIP(httpx.ProbeLimit),
		),
	)
}
