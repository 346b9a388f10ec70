package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/observability"
	"github.com/ownmytodo/todoai/internal/server/handlers"
)

func (s *Server) registerRoutes() {
	s.router.Post("/rewrite", handlers.NewRewriteHandler(s.opts.rewrite).ServeHTTP)

	s.router.Get("/health", handlers.StatusHandler)
	s.router.Get("/health/live", s.opts.health.LivenessHandler)
	s.router.Get("/health/ready", s.opts.health.ReadinessHandler)
	s.router.Get("/health/startup", s.opts.health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	s.registerAdminEndpoint()
}

// registerAdminEndpoint mounts the gofulmen signal endpoint when a token is set.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
	}
}
