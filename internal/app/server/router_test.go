package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/platform/config"
	cryptoutil "vacations/internal/platform/crypto"
	"vacations/internal/platform/metrics"
)

// newTestRouter wires the real router without a database; only routes that
// stop before the store layer are exercised.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	box, err := cryptoutil.New("")
	require.NoError(t, err)
	collector := metrics.New()
	app := &App{
		Config:  cfg,
		Metrics: collector,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return newRouter(app, buildServices(nil, cfg, box, collector))
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)
	for _, target := range []string{
		"/api/v1/vacation/requests",
		"/api/v1/calendar/business-days?start=2024-01-01&end=2024-01-05",
		"/api/v1/directory/me",
		"/api/v1/notifications",
		"/api/v1/audit/events",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vacation/requests", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"requestsTotal"`))
}
