package errors

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig bounds how often and how patiently a transient listener
// failure is redelivered. Redelivery runs on the publisher's goroutine, so
// every backoff delays the listeners after it.
type RetryConfig struct {
	// MaxAttempts counts the first delivery. Values below 1 mean 1.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration // zero means unbounded

	// BackoffFactor multiplies the wait after each failed attempt.
	BackoffFactor float64

	// Jitter spreads each wait by up to this fraction either way.
	Jitter float64
}

// DefaultRetry keeps waits short since publishers block on them.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 50 * time.Millisecond,
	MaxBackoff:     time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// RetryOption adjusts a RetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the total number of deliveries, the first included.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxAttempts = n }
}

// WithInitialBackoff sets the wait before the second delivery.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.InitialBackoff = d }
}

// WithMaxBackoff caps the wait between deliveries.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxBackoff = d }
}

// WithJitter sets the jitter fraction. Zero makes waits deterministic.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.Jitter = j }
}

// NewRetryConfig applies opts to DefaultRetry.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	cfg := DefaultRetry
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Redeliver calls deliver until it succeeds, fails with anything other
// than a transient error, or runs out of attempts.
//
// A non-transient error is returned exactly as deliver produced it. When
// attempts run out the last error is wrapped in a *CategorizedError
// recording how many were made. If ctx ends first the result is a
// CategoryCanceled error wrapping ctx.Err().
func Redeliver(ctx context.Context, cfg RetryConfig, deliver func(context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	wait := cfg.InitialBackoff

	var last error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return canceled(err, n-1)
		}

		last = deliver(ctx)
		if last == nil || !IsRetryable(last) {
			return last
		}
		if n == attempts {
			break
		}

		timer := time.NewTimer(jittered(wait, cfg.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return canceled(ctx.Err(), n)
		case <-timer.C:
		}

		if cfg.BackoffFactor > 0 {
			wait = time.Duration(float64(wait) * cfg.BackoffFactor)
		}
		if cfg.MaxBackoff > 0 && wait > cfg.MaxBackoff {
			wait = cfg.MaxBackoff
		}
	}

	return &CategorizedError{Err: last, Category: CategoryTransient, Attempts: attempts}
}

func canceled(err error, attempts int) error {
	return &CategorizedError{Err: err, Category: CategoryCanceled, Attempts: attempts}
}

// jittered returns base moved by up to jitter*base in either direction.
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	delta := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + delta)
}
