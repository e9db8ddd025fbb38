package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamSink publishes metrics snapshots to a Redis stream.
// It implements ports.SnapshotSink.
type StreamSink struct {
	client    redis.UniversalClient
	logger    *zap.Logger
	streamKey string
	maxLen    int64
	source    string
}

// NewStreamSink creates a sink appending to streamKey, trimmed to about
// maxLen entries. source identifies this process in every entry.
func NewStreamSink(client redis.UniversalClient, streamKey string, maxLen int64, source string, logger *zap.Logger) *StreamSink {
	return &StreamSink{
		client:    client,
		logger:    logger,
		streamKey: streamKey,
		maxLen:    maxLen,
		source:    source,
	}
}

// Name returns the sink name
func (s *StreamSink) Name() string {
	return "redis-stream"
}

// Report appends the snapshot to the stream
func (s *StreamSink) Report(ctx context.Context, snapshot *metrics.Snapshot) error {
	// Serialize snapshot
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.streamKey,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"source":    s.source,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"data":      string(data),
		},
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	s.logger.Debug("snapshot published",
		zap.String("stream", s.streamKey),
		zap.String("id", id),
		zap.Int("meters", len(snapshot.Meters)),
		zap.Int("histograms", len(snapshot.Histograms)))

	return nil
}
