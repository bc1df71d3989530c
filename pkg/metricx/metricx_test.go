package metricx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tabauth/pkg/metricx"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of family whose label name=value.
func counterValue(t *testing.T, m *metricx.Metrics, family, name, value string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == name && lp.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestObservers(t *testing.T) {
	m := metricx.New(false)

	m.ObserveAuthn("authenticated")
	m.ObserveAuthn("authenticated")
	m.ObserveAuthn("expired")
	m.ObserveSignin("ok")
	m.ObserveRefresh("bad_signature")

	require.Equal(t, 2.0, counterValue(t, m, "tabauth_authn_requests_total", "outcome", "authenticated"))
	require.Equal(t, 1.0, counterValue(t, m, "tabauth_authn_requests_total", "outcome", "expired"))
	require.Equal(t, 1.0, counterValue(t, m, "tabauth_signin_total", "result", "ok"))
	require.Equal(t, 1.0, counterValue(t, m, "tabauth_refresh_total", "result", "bad_signature"))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := metricx.New(false)

	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1.0, counterValue(t, m, "tabauth_http_requests_total", "code", "418"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "tabauth_http_requests_total")
}
