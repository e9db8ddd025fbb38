package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3333, cfg.HTTPPort)
	assert.Equal(t, 3334, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, time.Millisecond, cfg.Guard.DrainPollInterval)
	assert.Equal(t, 10*time.Second, cfg.Guard.DrainMaxWait)
	assert.Equal(t, 1028, cfg.Metrics.ReservoirSize)
	assert.Equal(t, 1000, cfg.Metrics.ExceptionCacheSize)
	assert.Equal(t, time.Minute, cfg.Metrics.ReportInterval)
	assert.Equal(t, []string{SinkLog}, cfg.Metrics.Sinks)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, ":3333", cfg.GetHTTPAddr())
	assert.Equal(t, ":3334", cfg.GetGRPCAddr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COYOTE_API_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GUARD_DRAIN_MAX_WAIT", "2s")
	t.Setenv("METRICS_SINKS", "log,redis")
	t.Setenv("METRICS_REPORT_INTERVAL", "15s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Guard.DrainMaxWait)
	assert.Equal(t, 15*time.Second, cfg.Metrics.ReportInterval)
	assert.True(t, cfg.HasSink(SinkRedis))
	assert.True(t, cfg.UsesRedis())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port out of range", map[string]string{"COYOTE_API_PORT": "70000"}, "invalid HTTP port"},
		{"ports collide", map[string]string{"COYOTE_GRPC_PORT": "3333"}, "must differ"},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "s3"}, "unsupported storage backend"},
		{"unknown sink", map[string]string{"METRICS_SINKS": "statsd"}, "unsupported metrics sink"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "invalid log level"},
		{"zero poll", map[string]string{"GUARD_DRAIN_POLL_INTERVAL": "0s"}, "poll interval"},
		{"bad reservoir", map[string]string{"METRICS_RESERVOIR_SIZE": "0"}, "reservoir size"},
		{"unparsable duration", map[string]string{"GUARD_DRAIN_MAX_WAIT": "soon"}, "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRenderRedactsPassword(t *testing.T) {
	t.Setenv("REDIS_PASS", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	data, err := cfg.Render()
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hunter2"))

	var rendered map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &rendered))
	api, ok := rendered["coyote"]["api"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3333, api["port"])
	guard, ok := rendered["coyote"]["guard"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10s", guard["drainMaxWait"])
}
