package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-site/internal/config"
)

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: 5 * time.Second,
		},
		Backend: config.BackendConfig{
			URL:               backendURL,
			AnonKey:           "anon",
			ServiceRoleKey:    "service",
			Timeout:           time.Second,
			SessionCookieName: "rs_session",
		},
		Throttle: config.ThrottleConfig{MaxAttempts: 3, Window: 15 * time.Minute},
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(&config.Config{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestNew_WiresRouterWithoutOptionalClients(t *testing.T) {
	var recoverCalls int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/recover" {
			recoverCalls++
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer backend.Close()

	f, err := New(testConfig(backend.URL), zap.NewNop())
	require.NoError(t, err)
	defer f.Close()

	assert.Nil(t, f.TLSManager())
	assert.True(t, f.IsHealthy(context.Background()))

	router := f.Router()
	assert.Same(t, router, f.Router())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	for i := 0; i < 4; i++ {
		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset", strings.NewReader(`{"email":"a@b.com"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 3, recoverCalls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "rental_site_throttle_entries 1")
}

func TestClose_IsIdempotent(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	f, err := New(testConfig(backend.URL), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	f.WaitForClose()
}
