package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/bretbouchard/sandbox/internal/http"
	"github.com/bretbouchard/sandbox/internal/infrastructure/config"
	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/infrastructure/tracing"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/middleware"
	"github.com/bretbouchard/sandbox/internal/workspace"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the workspace HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	store   *workspace.Store
	sockets *workspace.Handler
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewServer creates a workspace server over store. Metrics register on
// reg, which /metrics serves; a nil reg gets a fresh registry.
func NewServer(cfg *config.Config, store *workspace.Store, reg *prometheus.Registry, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Component("server")
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	logger.Info("Initializing workspace server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics(reg)
	var tracer *tracing.Tracer
	if cfg.Tracing.Enabled {
		tracer = tracing.New("workspace", cfg.Tracing.Buffer, logger)
	}
	sockets := workspace.NewHandler(store, cfg.Channel.MaxFrameBytes, metrics, tracer, logger.Component("ws"))
	h := handlers.NewHandlers(store, sockets, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(tracing.Middleware(tracer))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.CORSOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/sandboxes/:sandbox/tree", h.Tree)
	router.GET("/sandboxes/:sandbox/file", h.File)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/ws", sockets.HandleConnection)

	return &Server{
		router:  router,
		store:   store,
		sockets: sockets,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tracer returns the span tracer, or nil when tracing is disabled
func (s *Server) Tracer() *tracing.Tracer {
	return s.tracer
}

// Run serves until ctx is cancelled, then shuts down gracefully. Queued
// spans are flushed before it returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.tracer.Close()

	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shut down cleanly", zap.Error(err))
		return err
	}
	return nil
}
