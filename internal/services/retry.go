package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"eventcheckin/internal/domain"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 10 * time.Millisecond
	defaultRetryJitter   = 0.3
)

// retryPolicy controls how transient infrastructure failures are retried.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	jitter    float64
}

// retryTransient runs fn until it succeeds, fails with anything other than a
// retryable domain.InfrastructureError, or runs out of attempts. Delays grow
// exponentially from baseDelay with jitter added: 0, 10ms, 20ms, 40ms, ...
// If ctx ends while waiting, the last failure is returned still marked retryable.
func retryTransient(ctx context.Context, p retryPolicy, fn func(ctx context.Context) error) error {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.baseDelay * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Float64() * float64(delay) * p.jitter) //nolint:gosec // jitter only

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &domain.InfrastructureError{
					Op:        "retry",
					Err:       errors.Join(lastErr, ctx.Err()),
					Transient: true,
				}
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !domain.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
