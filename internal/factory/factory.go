package factory

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"rental-site/internal/client"
	"rental-site/internal/config"
	"rental-site/internal/events"
	"rental-site/internal/handler"
	"rental-site/internal/hashing"
	"rental-site/internal/metrics"
	"rental-site/internal/notify"
	redisrepo "rental-site/internal/repository/redis"
	"rental-site/internal/service"
	"rental-site/internal/throttle"
	"rental-site/internal/tls"
	"rental-site/internal/util"
)

const eventSource = "rental-site"

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	logger     *zap.Logger
	tlsManager *tls.Manager

	// Clients
	backendClient *client.BackendClient
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// In-process state
	hasher   *hashing.Hasher
	throttle *throttle.Throttle
	registry *notify.Registry
	metrics  *metrics.Metrics

	serviceFactory *service.ServiceFactory
	router         http.Handler

	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory loads configuration from the environment, initializes the
// global logger and builds every dependency.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()
	logger := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	return New(cfg, logger)
}

// New builds the application from an explicit configuration and starts the
// background sweepers. Close releases everything.
func New(cfg *config.Config, logger *zap.Logger) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	f := &Factory{
		config: cfg,
		logger: logger,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		m, err := tls.NewManager(cfg.Server, cfg.IsProduction(), logger.Named("tls"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize TLS: %w", err)
		}
		f.tlsManager = m
	}

	if err := f.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	if err := f.initializeManagers(); err != nil {
		f.closeClients()
		return nil, fmt.Errorf("failed to initialize managers: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.throttle.Start(ctx)
	f.registry.Start(ctx)

	logger.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("catalog_cache", f.redisClient != nil),
		util.Bool("events", f.kafkaProducer != nil),
	)
	return f, nil
}

// initializeClients connects the backend client, which is required, and the
// optional Redis and Kafka clients. Optional clients that fail are fatal
// only in production.
func (f *Factory) initializeClients() error {
	backend, err := client.NewBackendClient(f.config, f.logger.Named("backend"))
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	f.backendClient = backend

	var optionalErrors []error

	if f.config.Redis.URL != "" {
		if rc, err := client.NewRedisClient(f.config, f.logger.Named("redis")); err != nil {
			optionalErrors = append(optionalErrors, fmt.Errorf("redis: %w", err))
		} else {
			f.redisClient = rc
		}
	} else {
		f.logger.Info("REDIS_URL not set - catalog cache disabled")
	}

	if len(f.config.Kafka.Brokers) > 0 {
		if producer, err := client.NewKafkaProducer(f.config, f.logger.Named("kafka")); err != nil {
			optionalErrors = append(optionalErrors, fmt.Errorf("kafka: %w", err))
		} else {
			f.kafkaProducer = producer
		}
	} else {
		f.logger.Info("KAFKA_BROKERS not set - event publishing disabled")
	}

	if len(optionalErrors) > 0 {
		if f.config.IsProduction() {
			f.closeClients()
			return fmt.Errorf("critical service initialization failed: %v", optionalErrors)
		}
		for _, err := range optionalErrors {
			f.logger.Warn("Service initialization warning", util.ErrorField(err))
		}
	}
	return nil
}

// initializeManagers builds the hasher, the request throttle, the
// notification registry and the metrics registry.
func (f *Factory) initializeManagers() error {
	if f.config.Hashing.KeyPepper == "" && f.config.IsProduction() {
		f.logger.Warn("THROTTLE_KEY_PEPPER not set - using a random per-process pepper")
	}
	hasher, err := hashing.NewHasher(f.config.Hashing.KeyPepper)
	if err != nil {
		return err
	}
	f.hasher = hasher

	f.throttle = throttle.New(throttle.Config{
		MaxAttempts:     f.config.Throttle.MaxAttempts,
		Window:          f.config.Throttle.Window,
		CleanupInterval: f.config.Throttle.CleanupInterval,
		Shards:          f.config.Bucketing.ThrottleShards,
	}, throttle.WithLogger(f.logger.Named("throttle")))

	f.registry = notify.NewRegistry(notify.RegistryConfig{
		DefaultDuration: f.config.Notifications.DefaultDuration,
		IdleTTL:         f.config.Notifications.SessionIdleTTL,
		SweepInterval:   f.config.Notifications.SweepInterval,
	}, notify.WithRegistryLogger(f.logger.Named("notify")))

	f.metrics = metrics.New()
	f.metrics.Gauge("throttle_entries", "Client fingerprints currently tracked by the reset throttle.",
		func() float64 { return float64(f.throttle.Len()) })
	f.metrics.Gauge("notification_sessions", "Sessions holding a notification queue.",
		func() float64 { return float64(f.registry.Sessions()) })

	f.logger.Info("Managers initialized successfully",
		util.Int("throttle_max_attempts", f.throttle.MaxAttempts()),
		util.Duration("throttle_window", f.throttle.Window()),
		util.Int("throttle_shards", f.config.Bucketing.ThrottleShards),
	)
	return nil
}

// ==============================
// Service Factory
// ==============================

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		deps := service.Dependencies{
			Config:    f.config,
			Backend:   f.backendClient,
			Throttle:  f.throttle,
			Registry:  f.registry,
			Hasher:    f.hasher,
			Publisher: events.NopPublisher{},
			Metrics:   f.metrics,
			Logger:    f.logger,
		}
		// assigned only when set so the interfaces stay nil otherwise
		if f.redisClient != nil {
			deps.Cache = redisrepo.NewCatalogCache(f.redisClient, f.config.Redis.CacheTTL)
		}
		if f.kafkaProducer != nil {
			deps.Publisher = events.NewKafkaPublisher(f.kafkaProducer, eventSource, f.logger.Named("events"))
		}
		f.serviceFactory = service.NewServiceFactory(deps)
	}
	return f.serviceFactory
}

// Router wires the handlers onto the HTTP router.
func (f *Factory) Router() http.Handler {
	if f.router == nil {
		sf := f.ServiceFactory()
		logger := f.logger.Named("http")
		notifications := sf.NotificationService()

		f.router = handler.NewRouter(f.config, handler.Handlers{
			Auth:          handler.NewAuthHandler(sf.PasswordResetService(), logger),
			Notifications: handler.NewNotificationHandler(notifications, logger),
			Site:          handler.NewSiteHandler(sf.SiteService(), notifications, logger),
			Admin:         handler.NewAdminHandler(sf.AdminService(), notifications, logger),
		}, f.metrics, f.HealthChecks(), logger)
	}
	return f.router
}

// ==============================
// Health Checks
// ==============================

// HealthChecks lists a probe per connected dependency. Kafka is left out:
// events are best effort and never gate readiness.
func (f *Factory) HealthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"backend": f.backendClient.HealthCheck,
	}
	if f.redisClient != nil {
		checks["redis"] = f.redisClient.HealthCheck
	}
	return checks
}

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)
	for name, check := range f.HealthChecks() {
		if err := check(ctx); err != nil {
			healthErrors[name] = err
		}
	}
	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}
	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

// ==============================
// Shutdown
// ==============================

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		f.logger.Info("Shutting down factory...")

		if f.cancel != nil {
			f.cancel()
		}
		if f.throttle != nil {
			f.throttle.Stop()
		}
		if f.serviceFactory != nil {
			f.serviceFactory.Cleanup()
			f.logger.Info("Service factory cleaned up")
		} else if f.registry != nil {
			f.registry.Close()
		}

		f.closeClients()

		util.Sync()
		f.logger.Info("Factory shutdown completed")
	})
	return nil
}

func (f *Factory) closeClients() {
	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.Close(); err != nil {
			f.logger.Error("Failed to close Kafka producer", util.ErrorField(err))
		} else {
			f.logger.Info("Kafka producer closed")
		}
	}
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			f.logger.Error("Failed to close Redis client", util.ErrorField(err))
		} else {
			f.logger.Info("Redis client closed")
		}
	}
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.Manager {
	return f.tlsManager
}

func (f *Factory) Metrics() *metrics.Metrics {
	return f.metrics
}
