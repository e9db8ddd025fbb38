package metrics

import "time"

// ServerMetrics is the set of metrics recorded by the edge endpoints.
type ServerMetrics struct {
	Requests       *SuccessErrorMetric
	PutRequest     *SuccessErrorMetric
	GetRequest     *SuccessErrorMetric
	DeleteRequest  *SuccessErrorMetric
	SuccessLatency *Histogram
	ErrorLatency   *Histogram

	registry *Registry
}

// NewServerMetrics registers the edge metrics in r.
func NewServerMetrics(r *Registry) *ServerMetrics {
	return &ServerMetrics{
		Requests:       r.SuccessErrorMetric("requests"),
		PutRequest:     r.SuccessErrorMetric("putRequest"),
		GetRequest:     r.SuccessErrorMetric("getRequest"),
		DeleteRequest:  r.SuccessErrorMetric("deleteRequest"),
		SuccessLatency: r.Histogram("successLatency"),
		ErrorLatency:   r.Histogram("errorLatency"),
		registry:       r,
	}
}

// MarkSuccessRequest records n successful requests.
func (s *ServerMetrics) MarkSuccessRequest(n int64) { s.Requests.MarkSuccess(n) }

// MarkErrorRequest records n failed requests.
func (s *ServerMetrics) MarkErrorRequest(n int64) { s.Requests.MarkError(n) }

// ObserveRequest records the outcome and latency of one request.
func (s *ServerMetrics) ObserveRequest(start time.Time, failed bool) {
	if failed {
		s.MarkErrorRequest(1)
		s.ErrorLatency.UpdateSince(start)
		return
	}
	s.MarkSuccessRequest(1)
	s.SuccessLatency.UpdateSince(start)
}

// MarkException forwards to the registry.
func (s *ServerMetrics) MarkException(err error) {
	s.registry.MarkException(err)
}

// Registry returns the registry the metrics live in.
func (s *ServerMetrics) Registry() *Registry {
	return s.registry
}
