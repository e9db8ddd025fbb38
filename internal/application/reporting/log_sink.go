package reporting

import (
	"context"

	"github.com/aescanero/coyote/pkg/metrics"
	"go.uber.org/zap"
)

// LogSink writes snapshots to a zap logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging at info level
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("metrics")}
}

// Name returns the sink name
func (s *LogSink) Name() string {
	return "log"
}

// Report logs one entry per meter and histogram and one with all gauges
func (s *LogSink) Report(ctx context.Context, snapshot *metrics.Snapshot) error {
	if len(snapshot.Gauges) > 0 {
		s.logger.Info("gauges", zap.Any("values", snapshot.Gauges))
	}

	for _, m := range snapshot.Meters {
		s.logger.Info("meter",
			zap.String("name", m.Name),
			zap.Int64("count", m.Value.Count),
			zap.Float64("rate", m.Value.Rate),
			zap.Float64("oneMinuteRate", m.Value.OneMinuteRate),
			zap.Float64("fiveMinuteRate", m.Value.FiveMinuteRate),
			zap.Float64("fifteenMinuteRate", m.Value.FifteenMinuteRate))
	}

	for _, h := range snapshot.Histograms {
		s.logger.Info("histogram",
			zap.String("name", h.Name),
			zap.Int64("count", h.Value.Count),
			zap.Float64("mean", h.Value.Mean),
			zap.Float64("median", h.Value.Median),
			zap.Int64("max", h.Value.Max),
			zap.Int64("min", h.Value.Min),
			zap.Float64("stdDev", h.Value.StdDev),
			zap.Float64("ninetyFive", h.Value.NinetyFive),
			zap.Float64("ninetyNine", h.Value.NinetyNine))
	}

	return nil
}
