package metrics

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Histogram tracks the distribution of a value over a bounded,
// exponentially decaying reservoir of samples.
type Histogram struct {
	name      string
	histogram gometrics.Histogram
}

// HistogramStats is the rendered state of a histogram.
type HistogramStats struct {
	Count      int64   `json:"-" msgpack:"-"`
	Mean       float64 `json:"mean" msgpack:"mean"`
	Median     float64 `json:"median" msgpack:"median"`
	Max        int64   `json:"max" msgpack:"max"`
	Min        int64   `json:"min" msgpack:"min"`
	StdDev     float64 `json:"stdDev" msgpack:"stdDev"`
	NinetyFive float64 `json:"ninetyFive" msgpack:"ninetyFive"`
	NinetyNine float64 `json:"ninetyNine" msgpack:"ninetyNine"`
}

// Name returns the registered name of the histogram.
func (h *Histogram) Name() string { return h.name }

// Update records a sample.
func (h *Histogram) Update(v int64) {
	h.histogram.Update(v)
}

// UpdateSince records the milliseconds elapsed since start.
func (h *Histogram) UpdateSince(start time.Time) {
	h.histogram.Update(time.Since(start).Milliseconds())
}

// Count returns the number of samples ever recorded.
func (h *Histogram) Count() int64 { return h.histogram.Count() }

// Stats returns a consistent view of the histogram.
func (h *Histogram) Stats() HistogramStats {
	return histogramStats(h.histogram)
}

var reportedPercentiles = []float64{0.5, 0.95, 0.99}

func histogramStats(h gometrics.Histogram) HistogramStats {
	s := h.Snapshot()
	ps := s.Percentiles(reportedPercentiles)
	return HistogramStats{
		Count:      s.Count(),
		Mean:       s.Mean(),
		Median:     ps[0],
		Max:        s.Max(),
		Min:        s.Min(),
		StdDev:     s.StdDev(),
		NinetyFive: ps[1],
		NinetyNine: ps[2],
	}
}
