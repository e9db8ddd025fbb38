package metrics

import (
	"unicode"
	"unicode/utf8"
)

// SuccessErrorMetric groups a success meter, an error meter and a total
// meter that counts both.
type SuccessErrorMetric struct {
	success *Meter
	error   *Meter
	total   *Meter
}

func newSuccessErrorMetric(r *Registry, name string) *SuccessErrorMetric {
	prefix := capitalize(name)
	return &SuccessErrorMetric{
		success: r.Meter(prefix + "Success"),
		error:   r.Meter(prefix + "Error"),
		total:   r.Meter(name),
	}
}

// MarkSuccess records n successful operations.
func (m *SuccessErrorMetric) MarkSuccess(n int64) {
	m.success.Mark(n)
	m.total.Mark(n)
}

// MarkError records n failed operations.
func (m *SuccessErrorMetric) MarkError(n int64) {
	m.error.Mark(n)
	m.total.Mark(n)
}

// SuccessRatePer1Min returns the one-minute rate of successes.
func (m *SuccessErrorMetric) SuccessRatePer1Min() float64 {
	return m.success.Rate1()
}

// ErrorRatePer1Min returns the one-minute rate of errors.
func (m *SuccessErrorMetric) ErrorRatePer1Min() float64 {
	return m.error.Rate1()
}

// Success returns the meter of successful operations.
func (m *SuccessErrorMetric) Success() *Meter { return m.success }

// Error returns the meter of failed operations.
func (m *SuccessErrorMetric) Error() *Meter { return m.error }

// Total returns the meter counting every operation.
func (m *SuccessErrorMetric) Total() *Meter { return m.total }

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
