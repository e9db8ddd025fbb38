package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// tickInterval is the period the go-metrics EWMAs assume between ticks.
const tickInterval = 5 * time.Second

// ewmaMeter is a gometrics.Meter whose moving averages are advanced by
// tick. Rates are in events per second.
type ewmaMeter struct {
	count       atomic.Int64
	stopped     atomic.Bool
	a1, a5, a15 gometrics.EWMA
	start       time.Time
}

func newEWMAMeter(start time.Time) *ewmaMeter {
	return &ewmaMeter{
		a1:    gometrics.NewEWMA1(),
		a5:    gometrics.NewEWMA5(),
		a15:   gometrics.NewEWMA15(),
		start: start,
	}
}

// newTickedMeter creates a meter driven by the package ticker.
func newTickedMeter() gometrics.Meter {
	m := newEWMAMeter(time.Now())
	liveMeters.add(m)
	return m
}

func (m *ewmaMeter) Count() int64 { return m.count.Load() }

func (m *ewmaMeter) Mark(n int64) {
	if m.stopped.Load() {
		return
	}
	m.count.Add(n)
	m.a1.Update(n)
	m.a5.Update(n)
	m.a15.Update(n)
}

func (m *ewmaMeter) Rate1() float64  { return m.a1.Rate() }
func (m *ewmaMeter) Rate5() float64  { return m.a5.Rate() }
func (m *ewmaMeter) Rate15() float64 { return m.a15.Rate() }

func (m *ewmaMeter) RateMean() float64 {
	elapsed := time.Since(m.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.Count()) / elapsed
}

func (m *ewmaMeter) Snapshot() gometrics.Meter {
	return &meterSnapshot{
		count:    m.Count(),
		rate1:    m.Rate1(),
		rate5:    m.Rate5(),
		rate15:   m.Rate15(),
		rateMean: m.RateMean(),
	}
}

// Stop detaches the meter from the ticker; later marks are dropped.
func (m *ewmaMeter) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		liveMeters.remove(m)
	}
}

func (m *ewmaMeter) tick() {
	m.a1.Tick()
	m.a5.Tick()
	m.a15.Tick()
}

// meterSnapshot is a read-only copy of a meter.
type meterSnapshot struct {
	count                          int64
	rate1, rate5, rate15, rateMean float64
}

func (s *meterSnapshot) Count() int64              { return s.count }
func (s *meterSnapshot) Mark(int64)                { panic("Mark called on a meter snapshot") }
func (s *meterSnapshot) Rate1() float64            { return s.rate1 }
func (s *meterSnapshot) Rate5() float64            { return s.rate5 }
func (s *meterSnapshot) Rate15() float64           { return s.rate15 }
func (s *meterSnapshot) RateMean() float64         { return s.rateMean }
func (s *meterSnapshot) Snapshot() gometrics.Meter { return s }
func (s *meterSnapshot) Stop()                     {}

// meterTicker ticks every live meter from a single goroutine, started with
// the first meter.
type meterTicker struct {
	mu     sync.RWMutex
	once   sync.Once
	meters map[*ewmaMeter]struct{}
}

var liveMeters = &meterTicker{meters: make(map[*ewmaMeter]struct{})}

func (t *meterTicker) add(m *ewmaMeter) {
	t.mu.Lock()
	t.meters[m] = struct{}{}
	t.mu.Unlock()

	t.once.Do(func() { go t.run(tickInterval) })
}

func (t *meterTicker) remove(m *ewmaMeter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.meters, m)
}

func (t *meterTicker) ticking(m *ewmaMeter) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.meters[m]
	return ok
}

func (t *meterTicker) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		t.tickAll()
	}
}

func (t *meterTicker) tickAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for m := range t.meters {
		m.tick()
	}
}
