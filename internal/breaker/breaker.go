// Package breaker wraps sony/gobreaker around the result sink so a
// struggling Postgres instance trips the circuit instead of stalling
// every analysis call behind a slow write.
package breaker

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker wraps a gobreaker.CircuitBreaker with the trip policy carried
// over unchanged from the infra sink breaker it's modeled on: three
// consecutive failures, or a >5% failure rate once at least 20 requests
// have been observed in the rolling interval.
type Breaker struct{ cb *cb.CircuitBreaker }

// New creates a named Breaker.
func New(name string) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker, failing fast with
// gobreaker.ErrOpenState while the circuit is open.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State reports the breaker's current state, for health/metrics reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
