package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Logging       LoggingConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Backend       BackendConfig
	Throttle      ThrottleConfig
	Notifications NotificationConfig
	Bucketing     BucketingConfig
	Hashing       HashingConfig
	Site          SiteConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	// TrustedProxies lists the peers (IPs or CIDRs) whose forwarded client
	// address headers are honoured.
	TrustedProxies []string

	EnableTLS   bool
	TLSPort     int
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig is optional; an empty URL disables the catalog cache.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
}

// KafkaConfig is optional; no brokers disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BackendConfig points at the hosted auth + REST backend.
type BackendConfig struct {
	URL               string
	AnonKey           string
	ServiceRoleKey    string
	Timeout           time.Duration
	ResetRedirectURL  string
	SessionCookieName string
}

type ThrottleConfig struct {
	MaxAttempts     int
	Window          time.Duration
	CleanupInterval time.Duration
}

type NotificationConfig struct {
	DefaultDuration time.Duration
	SessionIdleTTL  time.Duration
	SweepInterval   time.Duration
}

type BucketingConfig struct {
	ThrottleShards int
}

type HashingConfig struct {
	KeyPepper string
}

// SiteConfig carries the static copy of the about page.
type SiteConfig struct {
	Name         string
	AboutTitle   string
	AboutBody    string
	FoundedYear  int
	FeaturedSize int
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),
			EnableTLS:      getEnvBool("TLS_ENABLED", false),
			TLSPort:        getEnvInt("TLS_PORT", 8443),
			AutoCert:       getEnvBool("TLS_AUTOCERT", false),
			Domain:         getEnv("TLS_DOMAIN", ""),
			CertFile:       getEnv("TLS_CERT_FILE", ""),
			KeyFile:        getEnv("TLS_KEY_FILE", ""),
			AutoCertDir:    getEnv("TLS_AUTOCERT_DIR", "./certs"),
			Email:          getEnv("TLS_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),
			CacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "rental-site.events"),
		},
		Backend: BackendConfig{
			URL:               strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
			AnonKey:           getEnv("BACKEND_ANON_KEY", ""),
			ServiceRoleKey:    getEnv("BACKEND_SERVICE_ROLE_KEY", ""),
			Timeout:           getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			ResetRedirectURL:  getEnv("PASSWORD_RESET_REDIRECT_URL", ""),
			SessionCookieName: getEnv("SESSION_COOKIE_NAME", "rs_session"),
		},
		Throttle: ThrottleConfig{
			MaxAttempts:     getEnvInt("RESET_MAX_ATTEMPTS", 3),
			Window:          getEnvDuration("RESET_WINDOW", 15*time.Minute),
			CleanupInterval: getEnvDuration("RESET_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Notifications: NotificationConfig{
			DefaultDuration: getEnvDuration("TOAST_DEFAULT_DURATION", 5*time.Second),
			SessionIdleTTL:  getEnvDuration("TOAST_SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval:   getEnvDuration("TOAST_SWEEP_INTERVAL", time.Minute),
		},
		Bucketing: BucketingConfig{
			ThrottleShards: getEnvInt("THROTTLE_SHARDS", 16),
		},
		Hashing: HashingConfig{
			KeyPepper: getEnv("THROTTLE_KEY_PEPPER", ""),
		},
		Site: SiteConfig{
			Name:         getEnv("SITE_NAME", "Rental Cars"),
			AboutTitle:   getEnv("SITE_ABOUT_TITLE", "About us"),
			AboutBody:    getEnv("SITE_ABOUT_BODY", ""),
			FoundedYear:  getEnvInt("SITE_FOUNDED_YEAR", 0),
			FeaturedSize: getEnvInt("SITE_FEATURED_SIZE", 6),
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.Backend.AnonKey == "" {
		errs = append(errs, errors.New("BACKEND_ANON_KEY is required"))
	}
	if c.Backend.ServiceRoleKey == "" {
		errs = append(errs, errors.New("BACKEND_SERVICE_ROLE_KEY is required"))
	}
	if c.Throttle.MaxAttempts <= 0 {
		errs = append(errs, errors.New("RESET_MAX_ATTEMPTS must be positive"))
	}
	if c.Throttle.Window <= 0 {
		errs = append(errs, errors.New("RESET_WINDOW must be positive"))
	}
	if c.Server.EnableTLS && c.Server.AutoCert && c.Server.Domain == "" {
		errs = append(errs, errors.New("TLS_DOMAIN is required when TLS_AUTOCERT is set"))
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
