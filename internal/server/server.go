package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/core/rewrite"
	apperrors "github.com/ownmytodo/todoai/internal/errors"
	"github.com/ownmytodo/todoai/internal/observability"
	"github.com/ownmytodo/todoai/internal/server/handlers"
	servermw "github.com/ownmytodo/todoai/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	host   string
	port   int
	opts   options
}

type options struct {
	rewrite           *rewrite.Service
	health            *handlers.HealthManager
	trustProxyHeaders bool
	cors              servermw.CORSOptions
	adminToken        string
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
}

// Option configures the server.
type Option func(*options)

// WithRewriteService mounts POST /rewrite backed by svc.
func WithRewriteService(svc *rewrite.Service) Option {
	return func(o *options) { o.rewrite = svc }
}

// WithHealthManager sets the manager behind the probe endpoints.
func WithHealthManager(hm *handlers.HealthManager) Option {
	return func(o *options) { o.health = hm }
}

// WithTrustProxyHeaders derives the client address from X-Forwarded-For and
// X-Real-IP. Enable only behind a proxy that sets them.
func WithTrustProxyHeaders(trust bool) Option {
	return func(o *options) { o.trustProxyHeaders = trust }
}

// WithCORS overrides the default open CORS policy.
func WithCORS(c servermw.CORSOptions) Option {
	return func(o *options) { o.cors = c }
}

// WithAdminToken enables POST /admin/signal guarded by a bearer token.
func WithAdminToken(token string) Option {
	return func(o *options) { o.adminToken = token }
}

// WithTimeouts sets the http.Server timeouts; zero values keep the defaults.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(o *options) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if idle > 0 {
			o.idleTimeout = idle
		}
	}
}

// New creates a new HTTP server instance
func New(host string, port int, opts ...Option) *Server {
	o := options{
		readTimeout:  15 * time.Second,
		writeTimeout: 30 * time.Second,
		idleTimeout:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.health == nil {
		o.health = handlers.NewHealthManager(handlers.AppVersion)
	}

	r := chi.NewRouter()

	if o.trustProxyHeaders {
		r.Use(middleware.RealIP)
	}

	// Order: request ID, metrics, recovery, CORS
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)
	r.Use(servermw.CORS(o.cors))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		host:   host,
		port:   port,
		opts:   o,
	}

	handlers.SetHTTPErrorResponder(HandleError)
	s.registerRoutes()

	return s
}

// Start listens and serves until Shutdown. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.readTimeout,
		WriteTimeout:      s.opts.writeTimeout,
		IdleTimeout:       s.opts.idleTimeout,
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.host),
			zap.Int("port", s.port),
			zap.String("addr", addr),
			zap.Bool("trust_proxy_headers", s.opts.trustProxyHeaders))
	}

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port
func (s *Server) Port() int {
	return s.port
}
