package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/internal/application/reporting"
	"github.com/aescanero/coyote/internal/application/resources"
	"github.com/aescanero/coyote/internal/config"
	"github.com/aescanero/coyote/pkg/adapters/events/memory"
	"github.com/aescanero/coyote/pkg/adapters/events/redis"
	"github.com/aescanero/coyote/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/coyote/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/coyote/pkg/adapters/storage/redis"
	"github.com/aescanero/coyote/pkg/api/grpc"
	"github.com/aescanero/coyote/pkg/api/http"
	"github.com/aescanero/coyote/pkg/api/websocket"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/aescanero/coyote/pkg/ports"
	"github.com/spf13/cobra"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const hubBuffer = 8

// app holds the wired service components
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	guard       *guard.Guard
	registry    *metrics.Registry
	reporter    *reporting.Reporter
	hub         *memory.Hub
	httpServer  *http.Server
	grpcServer  *grpc.Server
	redisClient *goredis.Client
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Coyote",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

// newApp wires every component from cfg
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		guard:  guard.New(),
		hub:    memory.NewHub(hubBuffer),
	}

	registry, err := metrics.NewRegistry(metrics.Config{
		ReservoirSize:      cfg.Metrics.ReservoirSize,
		ExceptionCacheSize: cfg.Metrics.ExceptionCacheSize,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics registry: %w", err)
	}
	a.registry = registry
	serverMetrics := metrics.NewServerMetrics(registry)

	// Initialize Redis client
	if cfg.UsesRedis() {
		a.redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		// Test Redis connection
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		defer cancel()
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			_ = a.redisClient.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	var store ports.ResourceStore
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		store = redisstorage.NewResourceStore(a.redisClient, cfg.Storage.TTL, logger)
	default:
		store = memorystorage.NewResourceStore()
	}

	a.reporter = reporting.NewReporter(registry, a.sinks(), cfg.Metrics.ReportInterval, 0, logger)
	registerGauges(registry, a.guard, time.Now())

	gatherer, err := prometheus.NewRegistry(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus registry: %w", err)
	}

	resourceService := resources.NewService(store, serverMetrics, logger)

	// Initialize API servers
	a.httpServer = http.NewServer(&http.Config{
		Port:              cfg.HTTPPort,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Guard:             a.guard,
		Resources:         resourceService,
		Metrics:           serverMetrics,
		Gatherer:          gatherer,
		RenderConfig:      cfg.Render,
		Logger:            logger,
	})
	a.httpServer.SetupWebSocket(websocket.NewHandler(a.hub, registry, logger))

	a.grpcServer, err = grpc.NewServer(&grpc.Config{
		Port:      cfg.GRPCPort,
		Guard:     a.guard,
		Resources: resourceService,
		Metrics:   serverMetrics,
		Logger:    logger,
	})
	if err != nil {
		a.closeRedis()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	return a, nil
}

// sinks returns the configured snapshot sinks; the stream hub is always on
func (a *app) sinks() []ports.SnapshotSink {
	sinks := []ports.SnapshotSink{a.hub}
	if a.cfg.HasSink(config.SinkLog) {
		sinks = append(sinks, reporting.NewLogSink(a.logger))
	}
	if a.cfg.HasSink(config.SinkRedis) {
		hostname, _ := os.Hostname()
		sinks = append(sinks, redis.NewStreamSink(
			a.redisClient,
			a.cfg.Metrics.StreamKey,
			a.cfg.Metrics.StreamMaxLen,
			fmt.Sprintf("%s-%d", hostname, os.Getpid()),
			a.logger,
		))
	}
	return sinks
}

// run serves until ctx is done or a server fails, then shuts down
func (a *app) run(ctx context.Context) error {
	serverErr := make(chan error, 2)

	// Start servers
	go func() {
		if err := a.httpServer.Start(); err != nil {
			serverErr <- err
		}
	}()

	go func() {
		if err := a.grpcServer.Start(); err != nil {
			serverErr <- err
		}
	}()

	a.reporter.Start()

	a.logger.Info("Coyote started",
		zap.Int("http_port", a.cfg.HTTPPort),
		zap.Int("grpc_port", a.cfg.GRPCPort),
		zap.String("storage", a.cfg.Storage.Backend))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case runErr = <-serverErr:
		a.logger.Error("server failed", zap.Error(runErr))
	}

	a.shutdown()
	return runErr
}

// shutdown stops admitting work, waits for in-flight requests and then
// tears every component down
func (a *app) shutdown() {
	a.guard.BeginShutdown()
	a.grpcServer.SetNotServing()

	drained := a.guard.AwaitDrain(context.Background(), a.cfg.Guard.DrainPollInterval, a.cfg.Guard.DrainMaxWait)
	if drained {
		a.logger.Info("in-flight requests drained")
	} else {
		a.logger.Warn("drain wait expired, stopping with requests in flight",
			zap.Int64("in_flight", a.guard.InFlight()),
			zap.Duration("max_wait", a.cfg.Guard.DrainMaxWait))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	a.reporter.Stop()
	a.reporter.Report(shutdownCtx)
	_ = a.hub.Close()

	a.closeRedis()

	a.logger.Info("Coyote shut down complete")
}

func (a *app) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("Redis close error", zap.Error(err))
	}
}

// registerGauges adds the process gauges
func registerGauges(registry *metrics.Registry, g *guard.Guard, started time.Time) {
	registry.Gauge("inFlightRequests", func() (any, error) {
		return g.InFlight(), nil
	})
	registry.Gauge("stopping", func() (any, error) {
		return g.Stopping(), nil
	})
	registry.Gauge("goroutines", func() (any, error) {
		return runtime.NumGoroutine(), nil
	})
	registry.Gauge("uptimeSeconds", func() (any, error) {
		return time.Since(started).Seconds(), nil
	})
	registry.Gauge("exceptionIdentities", func() (any, error) {
		return registry.ExceptionIdentities(), nil
	})
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
