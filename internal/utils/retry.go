package utils

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig holds exponential back-off retry parameters, used by the PDP
// Work Engine for per-URL soft-failure retries (max_retries).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do executes fn up to MaxAttempts times with a doubling delay between
// attempts, returning the last error wrapped with the attempt count.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			Logger.Warn().
				Str("operation", operationName).
				Int("attempt", attempt).
				Int("max_attempts", r.MaxAttempts).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying after failure")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}

// JitteredDelay returns a random duration in [min, max), used for base
// inter-request pacing and for the Anti-Detection Controller's escalating
// sleep windows.
func JitteredDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := max - min
	return min + time.Duration(rand.Int63n(int64(span)))
}

// Sleep blocks for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
