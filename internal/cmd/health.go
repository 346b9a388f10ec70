package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/ailink"
	errwrap "github.com/ownmytodo/todoai/internal/errors"
	"github.com/ownmytodo/todoai/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check: configuration, prompt template, generation
credential and rate limit store. Exits non-zero on the first failure.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		cfg, err := loadConfig(cmd)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", err)
			return
		}
		logger.Info("✅ Configuration valid")

		comps, err := buildComponents(cmd.Context(), cfg)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Components failed to initialize", err)
			return
		}
		defer comps.Close() // nolint:errcheck // best-effort cleanup
		logger.Info("✅ Prompt template loaded", zap.String("slug", comps.template.Slug()))

		if !comps.service.Ready() {
			env := ailink.CredentialEnvVar(cfg.AILink.ProviderName())
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Generation credential missing",
				errwrap.NewConfigInvalidError(env+" is not set"))
			return
		}
		logger.Info("✅ Generation credential configured",
			zap.String("provider", comps.generator.Provider()),
			zap.String("model", comps.generator.Model))

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		defer cancel()
		if err := comps.limiter.Ping(ctx); err != nil {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Rate limit store unreachable",
				errwrap.NewServiceUnavailableError(err.Error()))
			return
		}
		logger.Info("✅ Rate limit store reachable", zap.String("backend", cfg.RateLimit.Backend))

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
