package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/tabauth/internal/auth/http"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/idx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/metricx"
)

type testEnv struct {
	srv      *httptest.Server
	client   *authsdk.SDKClient
	provider *jwtx.Provider
	store    *sqlite.Store
}

func newTestEnv(t *testing.T, issuer string) *testEnv {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	hasher := cryptox.NewPasswordHasher("pepper")
	hash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	for _, u := range []domain.User{
		{Username: "leandro", Roles: []string{"ADMIN", "MANAGER"}, Enabled: true},
		{Username: "flavio", Roles: []string{"COMMON_USER"}, Enabled: true},
	} {
		u.ID = idx.New().String()
		u.PasswordHash = hash
		require.NoError(t, s.Users().CreateUser(ctx, u))
	}

	keys, err := jwtx.NewKeyMaterial("test-secret")
	require.NoError(t, err)
	provider, err := jwtx.NewProvider(keys, jwtx.ProviderOptions{Issuer: issuer})
	require.NoError(t, err)

	dir := store.NewDirectory(s, hasher)
	router := httpapi.NewRouter(httpapi.RouterOptions{
		Verifier:     provider,
		Keys:         keys,
		Directory:    dir,
		Metrics:      metricx.New(false),
		Issuer:       issuer,
		BuildVersion: "test",
	})
	router.Auth = &service.AuthService{Directory: dir, Credentials: dir, Tokens: provider}
	router.Users = dir
	router.DB = s
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:      srv,
		client:   authsdk.NewSDKClient(srv.URL),
		provider: provider,
		store:    s,
	}
}

func (e *testEnv) do(t *testing.T, method, path, auth, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSigninAndMe(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	session, err := env.client.AuthenticateWithPassword(ctx, "leandro", "admin123")
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "leandro", me.Username)
	require.ElementsMatch(t, []string{"ADMIN", "MANAGER"}, me.Authorities)

	claims, err := env.provider.Verify(session.AccessToken())
	require.NoError(t, err)
	require.Equal(t, env.srv.URL, claims.Issuer, "issuer comes from the request origin")
}

func TestSigninFailures(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")
	ctx := context.Background()

	_, err := env.client.Signin(ctx, "leandro", "wrong")
	require.ErrorIs(t, err, authsdk.ErrBadCredentials)

	_, err = env.client.Signin(ctx, "ghost", "admin123")
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid username/password supplied!", apiErr.Description)

	resp := env.do(t, http.MethodPost, "/auth/signin", "", `{"username":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSigninRateLimited(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")

	var last int
	for range httpx.SigninLimit.Burst + 1 {
		last = env.do(t, http.MethodPost, "/auth/signin", "", `{"username":"flavio","password":"nope"}`).StatusCode
	}
	require.Equal(t, http.StatusTooManyRequests, last)

	// Another username from the same address has its own bucket.
	resp := env.do(t, http.MethodPost, "/auth/signin", "", `{"username":"leandro","password":"admin123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")
	ctx := context.Background()

	pair, err := env.client.Signin(ctx, "flavio", "admin123")
	require.NoError(t, err)

	t.Run("bare token", func(t *testing.T) {
		got, err := env.client.Refresh(ctx, "flavio", pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "flavio", got.Username)
		require.NotEmpty(t, got.AccessToken)
	})

	t.Run("bearer prefixed token", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/auth/refresh/flavio", jwtx.BearerPrefix+pair.RefreshToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.client.Refresh(ctx, "ghost", pair.RefreshToken)
		require.ErrorIs(t, err, authsdk.ErrInvalidGrant)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.client.Refresh(ctx, "flavio", "not-a-jwt")
		require.ErrorIs(t, err, authsdk.ErrInvalidGrant)
	})

	t.Run("missing header", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/auth/refresh/flavio", "", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPolicyEnforcement(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")
	ctx := context.Background()

	admin, err := env.client.AuthenticateWithPassword(ctx, "leandro", "admin123")
	require.NoError(t, err)
	common, err := env.client.AuthenticateWithPassword(ctx, "flavio", "admin123")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"anonymous api", http.MethodGet, "/api/v1/me", "", http.StatusForbidden},
		{"garbage bearer", http.MethodGet, "/api/v1/me", "Bearer nope", http.StatusForbidden},
		{"authenticated api", http.MethodGet, "/api/v1/me", jwtx.BearerPrefix + common.AccessToken(), http.StatusOK},
		{"users always denied", http.MethodGet, "/users", jwtx.BearerPrefix + admin.AccessToken(), http.StatusForbidden},
		{"admin lookup as common user", http.MethodGet, "/api/v1/users/leandro", jwtx.BearerPrefix + common.AccessToken(), http.StatusForbidden},
		{"admin lookup", http.MethodGet, "/api/v1/users/flavio", jwtx.BearerPrefix + admin.AccessToken(), http.StatusOK},
		{"refresh token on api", http.MethodGet, "/api/v1/me", jwtx.BearerPrefix + common.RefreshToken(), http.StatusForbidden},
		{"refresh token on admin route", http.MethodGet, "/api/v1/users/flavio", jwtx.BearerPrefix + admin.RefreshToken(), http.StatusForbidden},
		{"admin lookup missing user", http.MethodGet, "/api/v1/users/ghost", jwtx.BearerPrefix + admin.AccessToken(), http.StatusNotFound},
		{"unknown route needs auth", http.MethodGet, "/somewhere", "", http.StatusForbidden},
		{"livez is public", http.MethodGet, "/livez", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.auth, "")
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDeletedUserTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")

	// Token for a subject the directory never had.
	pair, err := env.provider.Issue(context.Background(), "ghost", []string{"ADMIN"})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/v1/me", jwtx.BearerPrefix+pair.AccessToken, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")
	ctx := context.Background()

	admin, err := env.client.AuthenticateWithPassword(ctx, "leandro", "admin123")
	require.NoError(t, err)

	u, err := admin.GetUser(ctx, "flavio")
	require.NoError(t, err)
	require.Equal(t, "flavio", u.Username)
	require.Equal(t, []string{"COMMON_USER"}, u.Roles)
	require.True(t, u.Enabled)
	require.WithinDuration(t, time.Now(), u.CreatedAt, time.Minute)
}

func TestReadiness(t *testing.T) {
	env := newTestEnv(t, "tabauth-test")
	ctx := context.Background()

	health, err := env.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)

	require.NoError(t, env.store.Close())
	_, err = env.client.GetReadiness(ctx)
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}
