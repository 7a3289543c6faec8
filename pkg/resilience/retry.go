package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures bounded retry with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the backoff after each attempt.
	BackoffFactor float64
	// JitterFactor adds up to this fraction of the backoff as random jitter.
	JitterFactor float64
}

// DefaultRetryConfig returns the standard retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// RetryableFunc is attempted up to MaxAttempts times. Returning nil stops
// the loop; attempt is 1-based.
type RetryableFunc func(ctx context.Context, attempt int) error

// Retry runs fn with exponential backoff until it succeeds, attempts are
// exhausted, or ctx is canceled. The last error is returned on failure.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	if config.BackoffFactor < 1.0 {
		config.BackoffFactor = 2.0
	}

	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == config.MaxAttempts {
			break
		}

		wait := backoff
		if config.JitterFactor > 0 {
			jitter := time.Duration(rand.Float64() * config.JitterFactor * float64(backoff))
			wait += jitter
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffFactor)
		if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}
