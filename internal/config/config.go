package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"

	SinkLog   = "log"
	SinkRedis = "redis"
)

// Config holds all configuration for the Coyote edge service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"COYOTE_API_PORT" envDefault:"3333"`
	GRPCPort int    `env:"COYOTE_GRPC_PORT" envDefault:"3334"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Resource storage
	Storage StorageConfig

	// Redis configuration
	Redis RedisConfig

	// Request guard
	Guard GuardConfig

	// Metrics registry and reporting
	Metrics MetricsConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StorageConfig selects the resource store backend
type StorageConfig struct {
	Backend string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"STORAGE_TTL" envDefault:"24h"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// GuardConfig controls how shutdown waits for in-flight requests
type GuardConfig struct {
	DrainPollInterval time.Duration `env:"GUARD_DRAIN_POLL_INTERVAL" envDefault:"1ms"`
	DrainMaxWait      time.Duration `env:"GUARD_DRAIN_MAX_WAIT" envDefault:"10s"`
}

// MetricsConfig holds metrics registry and reporter configuration
type MetricsConfig struct {
	ReservoirSize      int           `env:"METRICS_RESERVOIR_SIZE" envDefault:"1028"`
	ExceptionCacheSize int           `env:"METRICS_EXCEPTION_CACHE_SIZE" envDefault:"1000"`
	ReportInterval     time.Duration `env:"METRICS_REPORT_INTERVAL" envDefault:"60s"`
	Sinks              []string      `env:"METRICS_SINKS" envDefault:"log" envSeparator:","`
	StreamKey          string        `env:"METRICS_STREAM_KEY" envDefault:"coyote:metrics"`
	StreamMaxLen       int64         `env:"METRICS_STREAM_MAX_LEN" envDefault:"1000"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate storage
	switch c.Storage.Backend {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("unsupported storage backend: %s (must be memory or redis)", c.Storage.Backend)
	}

	// Validate Redis config
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate guard config
	if c.Guard.DrainPollInterval <= 0 {
		return fmt.Errorf("drain poll interval must be positive")
	}
	if c.Guard.DrainMaxWait < 0 {
		return fmt.Errorf("drain max wait must not be negative")
	}

	// Validate metrics config
	if c.Metrics.ReservoirSize < 1 {
		return fmt.Errorf("metrics reservoir size must be at least 1")
	}
	if c.Metrics.ExceptionCacheSize < 1 {
		return fmt.Errorf("metrics exception cache size must be at least 1")
	}
	if c.Metrics.ReportInterval <= 0 {
		return fmt.Errorf("metrics report interval must be positive")
	}
	for _, sink := range c.Metrics.Sinks {
		if sink != SinkLog && sink != SinkRedis {
			return fmt.Errorf("unsupported metrics sink: %s (must be log or redis)", sink)
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Storage.Backend == StorageRedis || c.HasSink(SinkRedis)
}

// HasSink reports whether the named metrics sink is enabled
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Metrics.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// Render returns the effective configuration as YAML with secrets redacted
func (c *Config) Render() ([]byte, error) {
	password := ""
	if c.Redis.Password != "" {
		password = "******"
	}

	view := map[string]any{
		"coyote": map[string]any{
			"api": map[string]any{
				"port":     c.HTTPPort,
				"grpcPort": c.GRPCPort,
			},
			"logLevel": c.LogLevel,
			"storage": map[string]any{
				"backend": c.Storage.Backend,
				"ttl":     c.Storage.TTL.String(),
			},
			"redis": map[string]any{
				"addr":         c.Redis.Addr,
				"password":     password,
				"db":           c.Redis.DB,
				"poolSize":     c.Redis.PoolSize,
				"minIdleConns": c.Redis.MinIdleConns,
				"maxRetries":   c.Redis.MaxRetries,
				"dialTimeout":  c.Redis.DialTimeout.String(),
				"readTimeout":  c.Redis.ReadTimeout.String(),
				"writeTimeout": c.Redis.WriteTimeout.String(),
			},
			"guard": map[string]any{
				"drainPollInterval": c.Guard.DrainPollInterval.String(),
				"drainMaxWait":      c.Guard.DrainMaxWait.String(),
			},
			"metrics": map[string]any{
				"reservoirSize":      c.Metrics.ReservoirSize,
				"exceptionCacheSize": c.Metrics.ExceptionCacheSize,
				"reportInterval":     c.Metrics.ReportInterval.String(),
				"sinks":              c.Metrics.Sinks,
				"streamKey":          c.Metrics.StreamKey,
				"streamMaxLen":       c.Metrics.StreamMaxLen,
			},
			"timeouts": map[string]any{
				"shutdown":   c.Timeouts.ShutdownTimeout.String(),
				"readHeader": c.Timeouts.ReadHeaderTimeout.String(),
			},
		},
	}

	data, err := yaml.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return data, nil
}
