package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/internal/application/resources"
	"github.com/aescanero/coyote/pkg/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server represents the gRPC API server
type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	logger   *zap.Logger
}

// Config holds gRPC server configuration
type Config struct {
	Port      int
	Guard     *guard.Guard
	Resources *resources.Service
	Metrics   *metrics.ServerMetrics
	Logger    *zap.Logger
}

// NewServer creates a new gRPC server listening on cfg.Port
func NewServer(cfg *Config) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	return newServer(listener, cfg), nil
}

func newServer(listener net.Listener, cfg *Config) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(guardUnaryInterceptor(cfg.Guard, cfg.Metrics, cfg.Logger)),
		grpc.ChainStreamInterceptor(guardStreamInterceptor(cfg.Guard, cfg.Metrics, cfg.Logger)),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	if cfg.Resources != nil {
		RegisterResourcesServer(grpcServer, &resourcesService{resources: cfg.Resources, metrics: cfg.Metrics})
	}

	return &Server{
		server:   grpcServer,
		listener: listener,
		health:   healthServer,
		logger:   cfg.Logger,
	}
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.listener.Addr().String()))

	if err := s.server.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// SetNotServing reports NOT_SERVING to health checks
func (s *Server) SetNotServing() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.logger.Info("gRPC health set to NOT_SERVING")
}

// Shutdown gracefully shuts down the server. Pending RPCs are cut off when
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
		<-done
		s.logger.Warn("gRPC graceful stop timed out, connections closed")
	}

	s.logger.Info("gRPC server shut down complete")
	return nil
}
