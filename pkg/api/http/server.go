package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/internal/application/resources"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SnapshotStreamer serves the live metrics stream
type SnapshotStreamer interface {
	HandleSnapshotStream(*gin.Context)
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	guard        *guard.Guard
	resources    *resources.Service
	metrics      *metrics.ServerMetrics
	gatherer     prometheus.Gatherer
	renderConfig func() ([]byte, error)
	logger       *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port              int
	ReadHeaderTimeout time.Duration
	Guard             *guard.Guard
	Resources         *resources.Service
	Metrics           *metrics.ServerMetrics
	Gatherer          prometheus.Gatherer
	RenderConfig      func() ([]byte, error)
	Logger            *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	router.Use(recovery(cfg.Metrics, cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:       router,
		guard:        cfg.Guard,
		resources:    cfg.Resources,
		metrics:      cfg.Metrics,
		gatherer:     cfg.Gatherer,
		renderConfig: cfg.RenderConfig,
		logger:       cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Unguarded endpoints
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/config", s.handleConfig)
	if s.gatherer != nil {
		s.router.GET("/metrics/prometheus", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	// Guarded endpoints
	edge := s.router.Group("")
	edge.Use(requestMetrics(s.metrics))
	edge.Use(guarded(s.guard, s.metrics, s.logger))
	{
		edge.PUT("/v1/:param", s.handlePut)
		edge.GET("/v1/:param", s.handleGet)
		edge.DELETE("/v1/:param", s.handleDelete)
		edge.GET("/metrics", s.handleMetrics)
	}
}

// SetupWebSocket adds the snapshot stream endpoint
func (s *Server) SetupWebSocket(streamer SnapshotStreamer) {
	s.router.GET("/metrics/stream", streamer.HandleSnapshotStream)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
