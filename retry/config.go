// Package retry provides the backoff policy used when reconnecting to an
// agent event stream.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds backoff parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts. The initial attempt
	// counts as attempt 1. Zero or negative means no attempt cap; the
	// caller's context is then the only way to stop.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Jitter adds randomness to prevent synchronized reconnect storms.
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64
}

// DefaultConfig returns the reconnect policy used by the transport:
// 10 attempts, 500ms initial delay doubling up to 30s, 20% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Unlimited returns DefaultConfig without an attempt cap, for clients
// that should keep reconnecting until their context is cancelled.
func Unlimited() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 0
	return cfg
}

// Disabled returns a single-attempt configuration.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Unbounded reports whether the configuration has no attempt cap.
func (c Config) Unbounded() bool {
	return c.MaxAttempts <= 0
}

// Delay calculates the delay after a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt), then jitter.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
