package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://example.backend.test/")
	t.Setenv("BACKEND_ANON_KEY", "anon")
	t.Setenv("BACKEND_SERVICE_ROLE_KEY", "service")

	cfg := LoadConfig()

	assert.Equal(t, "https://example.backend.test", cfg.Backend.URL)
	assert.Equal(t, 3, cfg.Throttle.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Throttle.Window)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DefaultDuration)
	assert.Equal(t, "rs_session", cfg.Backend.SessionCookieName)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Server.TrustedProxies)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RESET_MAX_ATTEMPTS", "5")
	t.Setenv("RESET_WINDOW", "1h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TLS_ENABLED", "true")

	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.Throttle.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Throttle.Window)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Server.EnableTLS)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Throttle: ThrottleConfig{MaxAttempts: 0, Window: -time.Second},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL is required")
	assert.Contains(t, err.Error(), "RESET_MAX_ATTEMPTS must be positive")
	assert.Contains(t, err.Error(), "RESET_WINDOW must be positive")
}

func TestTrustedProxyPrefixes(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7,2001:db8::/32")

	cfg := LoadConfig()
	prefixes, err := cfg.Server.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.7/32", prefixes[1].String())
	assert.Equal(t, "2001:db8::/32", prefixes[2].String())

	bad := ServerConfig{TrustedProxies: []string{"not-an-ip"}}
	_, err = bad.TrustedProxyPrefixes()
	assert.Error(t, err)

	full := &Config{Server: bad}
	assert.Contains(t, full.Validate().Error(), "TRUSTED_PROXIES")
}
