package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rental-site/internal/config"
	"rental-site/internal/metrics"
	"rental-site/internal/util"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers groups the API handlers mounted under /api/v1.
type Handlers struct {
	Auth          *AuthHandler
	Notifications *NotificationHandler
	Site          *SiteHandler
	Admin         *AdminHandler
}

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(
	cfg *config.Config,
	handlers Handlers,
	m *metrics.Metrics,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) chi.Router {
	router := chi.NewRouter()

	if cfg.Server.EnableTLS {
		router.Use(requireHTTPS)
	}

	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		logger.Warn("Ignoring forwarded client addresses", util.ErrorField(err))
		proxies = nil
	}

	// Middleware stack
	router.Use(middleware.RequestID)
	router.Use(trustedRealIP(proxies))
	router.Use(LoggerMiddleware(logger))
	router.Use(m.Middleware)
	router.Use(middleware.Recoverer)
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	router.Use(middleware.Timeout(timeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"rental-site"}`))
	})
	router.Get("/health/ready", readinessHandler(checks, logger))
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.Backend.SessionCookieName, cfg.Server.EnableTLS))

		handlers.Auth.RegisterRoutes(r)
		handlers.Notifications.RegisterRoutes(r)
		handlers.Site.RegisterRoutes(r)
		handlers.Admin.RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"endpoint not found"}`))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"success":false,"error":"method not allowed"}`))
	})

	return router
}

// readinessHandler runs every dependency check concurrently and reports 503
// if any of them fails.
func readinessHandler(checks map[string]HealthCheck, logger *zap.Logger) http.HandlerFunc {
	h := &base{logger: logger}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := make([]string, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				if err := checks[name](ctx); err != nil {
					logger.Warn("Readiness check failed", util.String("dependency", name), util.ErrorField(err))
					results[i] = "unhealthy"
					return err
				}
				results[i] = "healthy"
				return nil
			})
		}
		err := g.Wait()

		status := make(map[string]string, len(names))
		for i, name := range names {
			status[name] = results[i]
		}
		if err != nil {
			h.respondWithJSON(w, http.StatusServiceUnavailable, Response{Success: false, Data: status, Error: "dependency unhealthy"})
			return
		}
		h.respondWithJSON(w, http.StatusOK, successResponse(status, "ready"))
	}
}
