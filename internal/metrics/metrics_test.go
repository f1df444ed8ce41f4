package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.PasswordResets.WithLabelValues(ResetThrottled).Inc()
	m.PasswordResets.WithLabelValues(ResetThrottled).Inc()
	m.PasswordResets.WithLabelValues(ResetAccepted).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PasswordResets.WithLabelValues(ResetThrottled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PasswordResets.WithLabelValues(ResetAccepted)))
}

func TestGaugeReadsAtScrape(t *testing.T) {
	m := New()
	live := 0
	m.Gauge("throttle_entries", "Live throttle entries.", func() float64 { return float64(live) })

	live = 7
	n, err := testutil.GatherAndCount(m.Registry(), "rental_site_throttle_entries")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "rental_site_throttle_entries 7")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/vehicles/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vehicles/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/vehicles/{id}", http.MethodGet, "418")))
}
