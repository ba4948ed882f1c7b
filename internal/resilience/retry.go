// Package resilience provides retry with exponential backoff for external
// service calls.
package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Policy is an immutable description of how a remote call is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// Multiplier scales the backoff after each failed attempt. Default: 2.
	Multiplier float64

	// ShouldRetry decides whether an error is worth another attempt.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep with the attempt number
	// (1-based) and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the standard model-call policy: three attempts with
// 1s, 2s, 4s waits between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Multiplier:     2,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsTransient
	}
	return p
}

// Backoff returns the wait after the given zero-based failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	return time.Duration(float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt)))
}

// Attempt runs fn under the policy, returning the value from the first
// successful call or the last error once attempts are exhausted. Context
// cancellation stops retrying immediately.
func Attempt[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.ShouldRetry(err) {
			return zero, lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// LogRetries returns an OnRetry callback that logs each retry attempt.
func LogRetries(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
