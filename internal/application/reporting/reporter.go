package reporting

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/aescanero/coyote/pkg/ports"
	"go.uber.org/zap"
)

// Reporter exports registry snapshots on a fixed interval
type Reporter struct {
	registry *metrics.Registry
	sinks    []ports.SnapshotSink
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReporter creates a new reporter. Each sink gets at most timeout per
// report; a zero timeout uses the interval.
func NewReporter(registry *metrics.Registry, sinks []ports.SnapshotSink, interval, timeout time.Duration, logger *zap.Logger) *Reporter {
	if timeout <= 0 {
		timeout = interval
	}
	return &Reporter{
		registry: registry,
		sinks:    sinks,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start starts the reporting loop
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	r.logger.Info("metrics reporter started",
		zap.Duration("interval", r.interval),
		zap.Int("sinks", len(r.sinks)))

	go r.run(stopCh, doneCh)
}

// Stop stops the reporting loop and waits for an in-progress report
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)
	<-doneCh

	r.logger.Info("metrics reporter stopped")
}

// run is the main reporting loop
func (r *Reporter) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.Report(context.Background())
		}
	}
}

// Report takes one snapshot and sends it to every sink. It returns the
// number of sinks that accepted it.
func (r *Reporter) Report(ctx context.Context) int {
	snapshot := r.registry.Snapshot()

	delivered := 0
	for _, sink := range r.sinks {
		if r.deliver(ctx, sink, snapshot) {
			delivered++
		}
	}
	return delivered
}

func (r *Reporter) deliver(ctx context.Context, sink ports.SnapshotSink, snapshot *metrics.Snapshot) (ok bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("snapshot sink panicked",
				zap.String("sink", sink.Name()),
				zap.Any("panic", p))
			ok = false
		}
	}()

	if err := sink.Report(ctx, snapshot); err != nil {
		r.logger.Warn("failed to report snapshot",
			zap.String("sink", sink.Name()),
			zap.Error(err))
		return false
	}
	return true
}
