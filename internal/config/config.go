package config

import (
	"time"

	"github.com/ownmytodo/todoai/internal/ailink"
	"github.com/ownmytodo/todoai/internal/core/ratelimit"
)

// Config represents the complete application configuration. It is built once
// at startup from defaults, an optional YAML file, .env and TODOAI_*
// environment variables, then passed by value into the components.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	AILink    ailink.Config   `mapstructure:"ailink"`
	Rewrite   RewriteConfig   `mapstructure:"rewrite"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Leave off unless a trusted proxy sets them.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`

	// AdminToken enables POST /admin/signal when non-empty.
	AdminToken string `mapstructure:"admin_token"`

	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig narrows the default allow-all policy.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimitConfig configures per-client admission on /rewrite.
type RateLimitConfig struct {
	Requests      int           `mapstructure:"requests"`
	Window        time.Duration `mapstructure:"window"`
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Policy returns the limiter policy.
func (c RateLimitConfig) Policy() ratelimit.Policy {
	return ratelimit.Policy{Requests: c.Requests, Window: c.Window}
}

// RewriteConfig tunes prompt construction.
type RewriteConfig struct {
	// Placeholder stands in for an absent or empty optional field.
	Placeholder string `mapstructure:"placeholder"`
	// PromptFile replaces the embedded prompt template.
	PromptFile string `mapstructure:"prompt_file"`
	// Timezone is an IANA name; empty or "Local" uses the server zone.
	Timezone string `mapstructure:"timezone"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Port is the dedicated Prometheus exporter port. /metrics on the main
	// port proxies it.
	Port int `mapstructure:"port"`
}
