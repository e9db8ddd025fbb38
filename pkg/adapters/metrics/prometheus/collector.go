package prometheus

import (
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "coyote"

// Collector exposes a metrics registry to Prometheus. Every scrape takes a
// fresh snapshot, so Prometheus sees the same values as /metrics.
type Collector struct {
	registry *metrics.Registry

	meterCount     *prometheus.Desc
	meterRate      *prometheus.Desc
	histogramCount *prometheus.Desc
	histogramStat  *prometheus.Desc
	gauge          *prometheus.Desc
}

// NewCollector creates a new Prometheus collector for registry
func NewCollector(registry *metrics.Registry) *Collector {
	return &Collector{
		registry: registry,
		meterCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "meter", "total"),
			"Total number of events marked on a meter",
			[]string{"name"}, nil,
		),
		meterRate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "meter", "rate"),
			"Meter event rate per second over a window",
			[]string{"name", "window"}, nil,
		),
		histogramCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "histogram", "count"),
			"Number of values recorded in a histogram",
			[]string{"name"}, nil,
		),
		histogramStat: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "histogram", "value"),
			"Histogram statistic over the sampled reservoir",
			[]string{"name", "stat"}, nil,
		),
		gauge: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "gauge", "value"),
			"Current value of a numeric gauge",
			[]string{"name"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.meterCount
	ch <- c.meterRate
	ch <- c.histogramCount
	ch <- c.histogramStat
	ch <- c.gauge
}

// Collect implements prometheus.Collector. Metrics whose labels Prometheus
// rejects are skipped so one bad name cannot fail the scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.registry.Snapshot()

	for _, m := range snapshot.Meters {
		send(ch, c.meterCount, prometheus.CounterValue, float64(m.Value.Count), m.Name)
		send(ch, c.meterRate, prometheus.GaugeValue, m.Value.Rate, m.Name, "mean")
		send(ch, c.meterRate, prometheus.GaugeValue, m.Value.OneMinuteRate, m.Name, "1m")
		send(ch, c.meterRate, prometheus.GaugeValue, m.Value.FiveMinuteRate, m.Name, "5m")
		send(ch, c.meterRate, prometheus.GaugeValue, m.Value.FifteenMinuteRate, m.Name, "15m")
	}

	for _, h := range snapshot.Histograms {
		s := h.Value
		send(ch, c.histogramCount, prometheus.CounterValue, float64(s.Count), h.Name)
		for stat, v := range map[string]float64{
			"mean":   s.Mean,
			"median": s.Median,
			"max":    float64(s.Max),
			"min":    float64(s.Min),
			"stddev": s.StdDev,
			"p95":    s.NinetyFive,
			"p99":    s.NinetyNine,
		} {
			send(ch, c.histogramStat, prometheus.GaugeValue, v, h.Name, stat)
		}
	}

	for name, value := range snapshot.Gauges {
		if v, ok := toFloat(value); ok {
			send(ch, c.gauge, prometheus.GaugeValue, v, name)
		}
	}
}

func send(ch chan<- prometheus.Metric, desc *prometheus.Desc, valueType prometheus.ValueType, v float64, labels ...string) {
	m, err := prometheus.NewConstMetric(desc, valueType, v, labels...)
	if err != nil {
		return
	}
	ch <- m
}

// NewRegistry returns a Prometheus registry holding the bridge collector
// plus the standard Go runtime and process collectors.
func NewRegistry(registry *metrics.Registry) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		NewCollector(registry),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// toFloat converts numeric gauge values; anything else is not exported.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
