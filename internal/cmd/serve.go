package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/ailink"
	"github.com/ownmytodo/todoai/internal/config"
	errwrap "github.com/ownmytodo/todoai/internal/errors"
	"github.com/ownmytodo/todoai/internal/metrics"
	"github.com/ownmytodo/todoai/internal/observability"
	"github.com/ownmytodo/todoai/internal/server"
	servermw "github.com/ownmytodo/todoai/internal/server/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server exposing POST /rewrite and GET /health.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read and validate the config file

The server drains in-flight requests, closes the rate limit store and
flushes logs on shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("metrics-port", 9090, "Prometheus exporter port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("metrics.port", serveCmd.Flags().Lookup("metrics-port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	observability.InitServerLogger(appName, observability.ServerLoggerOptions{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		Namespace:   appName,
	})
	logger := observability.ServerLogger

	if err := observability.InitMetrics(appName, cfg.Metrics.Port); err != nil {
		logger.Error("Failed to initialize metrics", zap.Error(err))
		return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
	}
	startedAt := time.Now()
	metrics.SetServerStartTime(startedAt.Unix())

	comps, err := buildComponents(cmd.Context(), cfg)
	if err != nil {
		_ = observability.ShutdownMetrics()
		return err
	}

	if !cfg.AILink.Configured() {
		logger.Warn("Generation credential missing: /rewrite will answer 500 until it is set",
			zap.String("env", ailink.CredentialEnvVar(cfg.AILink.ProviderName())))
	}

	logger.Info("Initializing server",
		zap.String("service", appName),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", observability.GetMetricsPort()),
		zap.String("provider", comps.generator.Provider()),
		zap.String("model", comps.generator.Model),
		zap.String("rate_limit", comps.limiter.Policy.String()),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend))

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithRewriteService(comps.service),
		server.WithHealthManager(comps.healthManager()),
		server.WithTrustProxyHeaders(cfg.Server.TrustProxyHeaders),
		server.WithCORS(servermw.CORSOptions{
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			MaxAge:         cfg.Server.CORS.MaxAge,
		}),
		server.WithAdminToken(cfg.Server.AdminToken),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
	)

	stopUptime := trackUptime(startedAt, 15*time.Second)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Shutdown handlers run LIFO: server, then store and metrics, then logger.
	signals.OnShutdown(func(ctx context.Context) error {
		observability.ServerLogger.Info("Flushing logger...")
		if err := observability.ServerLogger.Sync(); err != nil {
			observability.ServerLogger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		stopUptime()
		if err := comps.Close(); err != nil {
			observability.ServerLogger.Warn("Rate limit store close failed", zap.Error(err))
		}
		if err := observability.ShutdownMetrics(); err != nil {
			observability.ServerLogger.Warn("Metrics exporter stop failed", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		observability.ServerLogger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}

		observability.ServerLogger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		return reloadConfig(ctx)
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server...",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// Listen returns once the shutdown handlers have run.
	go func() {
		errChan <- signals.Listen(cmd.Context())
	}()

	if err := <-errChan; err != nil {
		observability.ServerLogger.Error("Server error", zap.Error(err))
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}
	return nil
}

// trackUptime refreshes the uptime gauge until the returned func is called.
func trackUptime(startedAt time.Time, interval time.Duration) func() {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.SetServerUptime(int64(time.Since(startedAt).Seconds()))
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// reloadConfig re-reads and validates the config file on SIGHUP. Running
// components keep their settings until restart.
func reloadConfig(ctx context.Context) error {
	logger := observability.ServerLogger
	logger.Info("Received SIGHUP: attempting config reload")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Info("No config file found - using defaults and environment variables")
			return nil
		}
		logger.Error("Failed to reload config file",
			zap.String("file", viper.ConfigFileUsed()),
			zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("Reloaded config is invalid; keeping current settings", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	logger.Info("Configuration validated; restart to apply changes",
		zap.String("file", viper.ConfigFileUsed()),
		zap.String("rate_limit", cfg.RateLimit.Policy().String()),
		zap.String("provider", cfg.AILink.ProviderName()),
		zap.Bool("credential_configured", cfg.AILink.Configured()))
	return nil
}
