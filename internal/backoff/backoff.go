// Package backoff drives retried attempts against a retry.Config.
package backoff

import (
	"context"
	"time"

	"github.com/spetersoncode/fresco/retry"
)

// Do executes fn until it succeeds, returns a non-transient error, the
// attempt cap is reached, or the context is cancelled. Waits between
// attempts follow cfg's schedule and abort on context cancellation.
func Do[T any](ctx context.Context, cfg retry.Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; cfg.Unbounded() || attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retry.IsTransient(err) {
			return zero, err
		}

		// No sleep after the final attempt.
		if !cfg.Unbounded() && attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.Delay(attempt)):
		}
	}

	return zero, lastErr
}
