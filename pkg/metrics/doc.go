// Package metrics provides the service's metric registry.
//
// A Registry holds named meters (event counts and rates), histograms (value
// distributions over a bounded reservoir) and gauges (functions evaluated at
// snapshot time). All recording operations are safe for concurrent use
// without caller-side locking. Snapshot renders every metric, with meters
// and histograms ordered most active first.
//
// The registry is constructed explicitly and shared; there is no package
// level default.
//
//	reg, err := metrics.NewRegistry(metrics.Config{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	reg.Meter("requests").Mark(1)
//	reg.Histogram("latency").Update(12)
//	reg.Gauge("goroutines", func() (any, error) { return runtime.NumGoroutine(), nil })
//
//	snap := reg.Snapshot()
package metrics
