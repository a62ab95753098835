// Package persistence provides sink decorators shared across the
// concrete storage backends in its subpackages.
package persistence

import (
	"context"
	"fmt"

	"github.com/oualidl290/flightsentry/internal/breaker"
	"github.com/oualidl290/flightsentry/internal/result"
)

// BreakerSink wraps a result.Sink with a circuit breaker so a struggling
// backend trips the circuit and fails fast instead of stalling every
// analysis call behind a slow or hanging write.
type BreakerSink struct {
	inner result.Sink
	cb    *breaker.Breaker
}

// NewBreakerSink wraps inner with a breaker named for logging/metrics.
func NewBreakerSink(inner result.Sink, name string) *BreakerSink {
	return &BreakerSink{inner: inner, cb: breaker.New(name)}
}

// Store runs inner.Store through the breaker. An open breaker returns an
// error wrapping result.ErrSinkUnavailable's meaning without importing
// the pipeline's error taxonomy into this package.
func (s *BreakerSink) Store(ctx context.Context, r result.Result) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.inner.Store(ctx, r)
	})
	if err != nil {
		return fmt.Errorf("sink unavailable: %w", err)
	}
	return nil
}

// State reports the underlying breaker's current state.
func (s *BreakerSink) State() string {
	return s.cb.State()
}
