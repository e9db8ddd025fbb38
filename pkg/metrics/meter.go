package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// Meter counts events and tracks their rate as a mean rate and 1, 5 and
// 15 minute exponentially weighted moving averages, in events per second.
type Meter struct {
	name  string
	meter gometrics.Meter
}

// MeterStats is the rendered state of a meter.
type MeterStats struct {
	Count             int64   `json:"count" msgpack:"count"`
	Rate              float64 `json:"rate" msgpack:"rate"`
	OneMinuteRate     float64 `json:"oneMinuteRate" msgpack:"oneMinuteRate"`
	FiveMinuteRate    float64 `json:"fiveMinuteRate" msgpack:"fiveMinuteRate"`
	FifteenMinuteRate float64 `json:"fifteenMinuteRate" msgpack:"fifteenMinuteRate"`
}

// Name returns the registered name of the meter.
func (m *Meter) Name() string { return m.name }

// Mark records n events.
func (m *Meter) Mark(n int64) {
	m.meter.Mark(n)
}

// Count returns the number of recorded events.
func (m *Meter) Count() int64 { return m.meter.Count() }

// Rate1 returns the one-minute moving average rate.
func (m *Meter) Rate1() float64 { return m.meter.Rate1() }

// Rate5 returns the five-minute moving average rate.
func (m *Meter) Rate5() float64 { return m.meter.Rate5() }

// Rate15 returns the fifteen-minute moving average rate.
func (m *Meter) Rate15() float64 { return m.meter.Rate15() }

// RateMean returns the mean rate since the meter was created.
func (m *Meter) RateMean() float64 { return m.meter.RateMean() }

// Stats returns a consistent view of the meter.
func (m *Meter) Stats() MeterStats {
	return meterStats(m.meter)
}

func meterStats(m gometrics.Meter) MeterStats {
	s := m.Snapshot()
	return MeterStats{
		Count:             s.Count(),
		Rate:              s.RateMean(),
		OneMinuteRate:     s.Rate1(),
		FiveMinuteRate:    s.Rate5(),
		FifteenMinuteRate: s.Rate15(),
	}
}
