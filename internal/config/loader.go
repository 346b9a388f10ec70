// Package config provides centralized configuration management for todoai.
// Values are layered by viper: built-in defaults, an optional YAML config
// file, variables from a .env file, then TODOAI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ownmytodo/todoai/internal/ailink"
	"github.com/ownmytodo/todoai/internal/core/ratelimit"
)

// EnvPrefix is prepended to every environment override, e.g.
// TODOAI_SERVER_PORT for server.port.
const EnvPrefix = "TODOAI"

// SetDefaults registers every known key so environment overrides resolve.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.max_age", 300)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests", ratelimit.DefaultPolicy.Requests)
	v.SetDefault("rate_limit.window", ratelimit.DefaultPolicy.Window.String())
	v.SetDefault("rate_limit.backend", ratelimit.BackendMemory)
	v.SetDefault("rate_limit.sweep_interval", "5m")
	v.SetDefault("rate_limit.redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.redis.password", "")
	v.SetDefault("rate_limit.redis.db", 0)
	v.SetDefault("rate_limit.redis.prefix", "todoai:ratelimit:")
	v.SetDefault("rate_limit.redis.timeout", "2s")

	// Generation defaults
	v.SetDefault("ailink.provider", ailink.ProviderGemini)
	v.SetDefault("ailink.api_key", "")
	v.SetDefault("ailink.base_url", "")
	v.SetDefault("ailink.model", "")
	v.SetDefault("ailink.timeout", ailink.DefaultTimeout.String())
	v.SetDefault("ailink.temperature", 0)
	v.SetDefault("ailink.max_output_tokens", 0)
	v.SetDefault("ailink.debug.diagnostic_max_bytes", 512)

	// Prompt defaults
	v.SetDefault("rewrite.placeholder", "none")
	v.SetDefault("rewrite.prompt_file", "")
	v.SetDefault("rewrite.timezone", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "production")

	// Metrics defaults
	v.SetDefault("metrics.port", 9090)
}

// BindEnv enables TODOAI_ prefixed environment overrides with "." mapped
// to "_".
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load decodes v into a Config, applies the provider-native credential
// fallback and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.AILink.APIKey) == "" {
		cfg.AILink.APIKey = strings.TrimSpace(os.Getenv(ailink.CredentialEnvVar(cfg.AILink.ProviderName())))
	}
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be corrected by defaults. A missing
// credential is not an error: the service starts and reports it per request.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		errs = append(errs, fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port))
	}
	if err := c.RateLimit.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.RateLimit.Backend {
	case ratelimit.BackendMemory:
	case ratelimit.BackendRedis:
		if strings.TrimSpace(c.RateLimit.Redis.Addr) == "" {
			errs = append(errs, errors.New("rate_limit.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate_limit.backend must be %q or %q, got %q",
			ratelimit.BackendMemory, ratelimit.BackendRedis, c.RateLimit.Backend))
	}

	if !slices.Contains(ailink.Providers(), c.AILink.ProviderName()) {
		errs = append(errs, fmt.Errorf("ailink.provider %q is not supported (supported: %s)",
			c.AILink.Provider, strings.Join(ailink.Providers(), ", ")))
	}
	if c.AILink.Timeout < 0 {
		errs = append(errs, fmt.Errorf("ailink.timeout must not be negative, got %s", c.AILink.Timeout))
	}

	if _, err := c.Rewrite.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c RewriteConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("rewrite.timezone %q: %w", name, err)
	}
	return loc, nil
}
