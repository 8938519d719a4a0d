package syncerr

import (
	"context"
	"time"
)

const (
	// DefaultAttempts bounds internal retries of transient failures.
	DefaultAttempts = 3
	// DefaultBackoff is multiplied by the attempt number, giving a linearly
	// increasing delay between attempts.
	DefaultBackoff = 1500 * time.Millisecond
)

// Retry runs fn up to attempts times, sleeping backoff × attempt between
// tries. Only failures classified as retryable are retried; everything else
// returns immediately with its classification attached.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var last *Error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		last = Classify(err)
		if !Retryable(last.Kind) || attempt == attempts {
			return last
		}
		select {
		case <-time.After(backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return Classify(ctx.Err())
		}
	}
	return last
}
