package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(newViper(t))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.False(t, cfg.Server.TrustProxyHeaders)
		assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)

		// Verify rate limit defaults
		assert.Equal(t, 10, cfg.RateLimit.Requests)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, "memory", cfg.RateLimit.Backend)
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepInterval)

		// Verify generation defaults
		assert.Equal(t, "gemini", cfg.AILink.ProviderName())
		assert.Equal(t, 8*time.Second, cfg.AILink.Timeout)
		assert.False(t, cfg.AILink.Configured())
		assert.Equal(t, 512, cfg.AILink.Debug.DiagnosticMaxBytes)

		assert.Equal(t, "none", cfg.Rewrite.Placeholder)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		v := newViper(t)
		t.Setenv("TODOAI_SERVER_PORT", "9999")
		t.Setenv("TODOAI_RATE_LIMIT_REQUESTS", "3")
		t.Setenv("TODOAI_RATE_LIMIT_WINDOW", "30s")
		t.Setenv("TODOAI_AILINK_TIMEOUT", "2s")
		t.Setenv("TODOAI_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, 3, cfg.RateLimit.Requests)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
		assert.Equal(t, 2*time.Second, cfg.AILink.Timeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORS.AllowedOrigins)
	})

	t.Run("ProviderNativeCredential", func(t *testing.T) {
		v := newViper(t)
		t.Setenv("GEMINI_API_KEY", " gm-key ")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "gm-key", cfg.AILink.APIKey)
		assert.True(t, cfg.AILink.Configured())
	})

	t.Run("PrefixedCredentialWins", func(t *testing.T) {
		v := newViper(t)
		t.Setenv("GEMINI_API_KEY", "native")
		t.Setenv("TODOAI_AILINK_API_KEY", "prefixed")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "prefixed", cfg.AILink.APIKey)
	})

	t.Run("OpenAICredentialFallback", func(t *testing.T) {
		v := newViper(t)
		t.Setenv("TODOAI_AILINK_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "oa-key", cfg.AILink.APIKey)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		v := newViper(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
rate_limit:
  backend: Redis
  redis:
    addr: redis.internal:6379
rewrite:
  placeholder: "-"
  timezone: UTC
`), 0o600))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, "redis", cfg.RateLimit.Backend)
		assert.Equal(t, "redis.internal:6379", cfg.RateLimit.Redis.Addr)
		assert.Equal(t, "-", cfg.Rewrite.Placeholder)

		loc, err := cfg.Rewrite.Location()
		require.NoError(t, err)
		assert.Equal(t, time.UTC, loc)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"requests", func(c *Config) { c.RateLimit.Requests = 0 }, "requests must be positive"},
		{"window", func(c *Config) { c.RateLimit.Window = 0 }, "window must be positive"},
		{"backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "rate_limit.backend"},
		{"redis addr", func(c *Config) {
			c.RateLimit.Backend = "redis"
			c.RateLimit.Redis.Addr = " "
		}, "rate_limit.redis.addr"},
		{"provider", func(c *Config) { c.AILink.Provider = "llama" }, "ailink.provider"},
		{"timezone", func(c *Config) { c.Rewrite.Timezone = "Mars/Olympus" }, "rewrite.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newViper(t))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TODOAI_TEST_DOTENV=from-file\nTODOAI_TEST_DOTENV_SET=from-file\n"), 0o600))

	t.Setenv("TODOAI_TEST_DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("TODOAI_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("TODOAI_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("TODOAI_TEST_DOTENV_SET"))
}
