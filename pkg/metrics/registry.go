package metrics

import (
	"fmt"
	"sync"

	gometrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
)

const (
	// DefaultReservoirSize matches the Dropwizard exponentially decaying reservoir.
	DefaultReservoirSize = 1028
	// DefaultExceptionCacheSize bounds the number of per-exception meters.
	DefaultExceptionCacheSize = 1000

	expDecayAlpha  = 0.015
	exceptionsName = "exceptions"
)

// GaugeFunc produces a gauge value at snapshot time.
type GaugeFunc func() (any, error)

// Config holds registry settings. Zero values select the defaults.
type Config struct {
	ReservoirSize      int
	ExceptionCacheSize int
	Logger             *zap.Logger
}

// Registry is the process-wide collection of meters, histograms and gauges.
// It is safe for concurrent use.
type Registry struct {
	registry      gometrics.Registry
	reservoirSize int
	logger        *zap.Logger

	gaugesMu sync.RWMutex
	gauges   map[string]GaugeFunc

	exceptions      *Meter
	exceptionMeters *exceptionCache
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ReservoirSize <= 0 {
		cfg.ReservoirSize = DefaultReservoirSize
	}
	if cfg.ExceptionCacheSize <= 0 {
		cfg.ExceptionCacheSize = DefaultExceptionCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Registry{
		registry:      gometrics.NewRegistry(),
		reservoirSize: cfg.ReservoirSize,
		logger:        cfg.Logger,
		gauges:        make(map[string]GaugeFunc),
	}

	cache, err := newExceptionCache(cfg.ExceptionCacheSize, func(m *Meter) {
		r.registry.Unregister(m.name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exception cache: %w", err)
	}
	r.exceptionMeters = cache
	r.exceptions = r.Meter(exceptionsName)

	return r, nil
}

// Meter returns the meter registered under name, creating it if absent.
func (r *Registry) Meter(name string) *Meter {
	i := r.registry.GetOrRegister(name, newTickedMeter)
	m, ok := i.(gometrics.Meter)
	if !ok {
		r.logger.Warn("metric name already used by another metric type",
			zap.String("name", name),
			zap.String("type", fmt.Sprintf("%T", i)))
		return &Meter{name: name, meter: gometrics.NilMeter{}}
	}
	return &Meter{name: name, meter: m}
}

// Histogram returns the histogram registered under name, creating it if absent.
func (r *Registry) Histogram(name string) *Histogram {
	i := r.registry.GetOrRegister(name, r.newHistogram)
	h, ok := i.(gometrics.Histogram)
	if !ok {
		r.logger.Warn("metric name already used by another metric type",
			zap.String("name", name),
			zap.String("type", fmt.Sprintf("%T", i)))
		return &Histogram{name: name, histogram: gometrics.NilHistogram{}}
	}
	return &Histogram{name: name, histogram: h}
}

func (r *Registry) newHistogram() gometrics.Histogram {
	return gometrics.NewHistogram(gometrics.NewExpDecaySample(r.reservoirSize, expDecayAlpha))
}

// Gauge registers fn under name. Registering an existing name is a no-op;
// the result reports whether fn was registered.
func (r *Registry) Gauge(name string, fn GaugeFunc) bool {
	if fn == nil {
		return false
	}

	r.gaugesMu.Lock()
	defer r.gaugesMu.Unlock()

	if _, exists := r.gauges[name]; exists {
		return false
	}
	r.gauges[name] = fn
	return true
}

// MarkException counts err in the global exceptions meter and in a meter
// dedicated to its type and message.
func (r *Registry) MarkException(err error) {
	if err == nil {
		return
	}

	r.exceptions.Mark(1)

	key := exceptionKeyOf(err)
	r.exceptionMeters.mark(key, func() *Meter {
		return r.Meter(key.meterName())
	})
}

// ExceptionIdentities returns the number of cached per-exception meters.
func (r *Registry) ExceptionIdentities() int {
	return r.exceptionMeters.len()
}

// SuccessErrorMetric returns the composite success/error/total meters for name.
func (r *Registry) SuccessErrorMetric(name string) *SuccessErrorMetric {
	return newSuccessErrorMetric(r, name)
}

// Snapshot evaluates every gauge and reads every meter and histogram.
// Failing gauges are left out and logged.
func (r *Registry) Snapshot() *Snapshot {
	snap := &Snapshot{
		Gauges:     r.evaluateGauges(),
		Meters:     Ordered[MeterStats]{},
		Histograms: Ordered[HistogramStats]{},
	}

	r.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case gometrics.Meter:
			snap.Meters = append(snap.Meters, Entry[MeterStats]{Name: name, Value: meterStats(m)})
		case gometrics.Histogram:
			snap.Histograms = append(snap.Histograms, Entry[HistogramStats]{Name: name, Value: histogramStats(m)})
		}
	})

	snap.Meters.sortByCount(func(s MeterStats) int64 { return s.Count })
	snap.Histograms.sortByCount(func(s HistogramStats) int64 { return s.Count })

	return snap
}

func (r *Registry) evaluateGauges() map[string]any {
	r.gaugesMu.RLock()
	gauges := make(map[string]GaugeFunc, len(r.gauges))
	for name, fn := range r.gauges {
		gauges[name] = fn
	}
	r.gaugesMu.RUnlock()

	values := make(map[string]any, len(gauges))
	for name, fn := range gauges {
		v, err := evaluateGauge(fn)
		if err != nil {
			r.logger.Warn("gauge evaluation failed",
				zap.String("gauge", name),
				zap.Error(err))
			continue
		}
		values[name] = v
	}
	return values
}

func evaluateGauge(fn GaugeFunc) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("gauge panicked: %v", p)
		}
	}()
	return fn()
}
