package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/ailink"
	"github.com/ownmytodo/todoai/internal/ailink/prompt"
	"github.com/ownmytodo/todoai/internal/config"
	"github.com/ownmytodo/todoai/internal/core/ratelimit"
	"github.com/ownmytodo/todoai/internal/core/rewrite"
	errwrap "github.com/ownmytodo/todoai/internal/errors"
	"github.com/ownmytodo/todoai/internal/observability"
	"github.com/ownmytodo/todoai/internal/server/handlers"
)

// components are the long-lived pieces shared by serve and rewrite.
type components struct {
	cfg       *config.Config
	template  *prompt.Template
	generator *ailink.Generator
	limiter   *ratelimit.Limiter
	service   *rewrite.Service
}

// buildComponents wires the rewrite pipeline from cfg.
func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	tmpl, err := loadTemplate(cfg.Rewrite.PromptFile)
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(ctx, err, "prompt template could not be loaded")
	}

	gen, err := ailink.NewGenerator(cfg.AILink, ailink.WithSystem(tmpl.System(), tmpl.Slug()))
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(ctx, err, err.Error())
	}

	store, err := newRateLimitStore(ctx, cfg.RateLimit)
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(ctx, err, "rate limit store unavailable")
	}

	limiter, err := ratelimit.New(store, cfg.RateLimit.Policy())
	if err != nil {
		_ = store.Close()
		return nil, errwrap.WrapConfigInvalid(ctx, err, err.Error())
	}

	loc, err := cfg.Rewrite.Location()
	if err != nil {
		_ = limiter.Close()
		return nil, errwrap.WrapConfigInvalid(ctx, err, err.Error())
	}

	svc, err := rewrite.NewService(gen, limiter, tmpl,
		rewrite.WithCredentialConfigured(cfg.AILink.Configured()),
		rewrite.WithPlaceholder(cfg.Rewrite.Placeholder),
		rewrite.WithLocation(loc),
		rewrite.WithLabels(cfg.RateLimit.Backend, gen.Provider()),
	)
	if err != nil {
		_ = limiter.Close()
		return nil, errwrap.WrapInternal(ctx, err, "rewrite service initialization failed")
	}

	return &components{
		cfg:       cfg,
		template:  tmpl,
		generator: gen,
		limiter:   limiter,
		service:   svc,
	}, nil
}

// Close releases the limiter store.
func (c *components) Close() error {
	if c == nil {
		return nil
	}
	return c.limiter.Close()
}

// healthManager registers the readiness checks for the running server.
func (c *components) healthManager() *handlers.HealthManager {
	hm := handlers.NewHealthManager(versionInfo.Version)

	hm.RegisterChecker("generation_credential", handlers.CheckerFunc(func(ctx context.Context) error {
		if !c.service.Ready() {
			return errwrap.NewConfigInvalidError(
				fmt.Sprintf("%s is not set", ailink.CredentialEnvVar(c.cfg.AILink.ProviderName())))
		}
		return nil
	}))
	hm.RegisterChecker("rate_limit_store", handlers.CheckerFunc(c.limiter.Ping))
	hm.RegisterChecker("telemetry", handlers.CheckerFunc(func(ctx context.Context) error {
		if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
			return errwrap.NewInternalError("telemetry system not initialized")
		}
		return nil
	}))

	return hm
}

func loadTemplate(path string) (*prompt.Template, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return prompt.DefaultTemplate()
	}
	p, err := prompt.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return prompt.NewTemplate(p), nil
}

func newRateLimitStore(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Store, error) {
	switch cfg.Backend {
	case ratelimit.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := ratelimit.NewRedisStore(ctx, client,
			ratelimit.WithPrefix(cfg.Redis.Prefix),
			ratelimit.WithTimeout(cfg.Redis.Timeout),
		)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		logInfo("Using redis rate limit store", zap.String("addr", cfg.Redis.Addr))
		return store, nil
	default:
		store := ratelimit.NewMemoryStore()
		store.StartSweeper(cfg.SweepInterval, cfg.Window, nil)
		return store, nil
	}
}

// logInfo writes to the server logger when running, else the CLI logger.
func logInfo(msg string, fields ...zap.Field) {
	if logger := observability.Logger(); logger != nil {
		logger.Info(msg, fields...)
	}
}
