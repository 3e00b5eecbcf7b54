package retry

import (
	"context"
	"time"
)

const maxDelay = 30 * time.Second

// Do calls fn until it succeeds, attempts run out, or ctx ends. retryable
// decides whether an error is worth another attempt; nil retries everything.
// The delay doubles after each failure, capped at 30s.
func Do(ctx context.Context, attempts int, initialDelay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	delay := initialDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 || (retryable != nil && !retryable(err)) {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if delay *= 2; delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
