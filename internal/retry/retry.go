package retry

import (
	"context"
	"math/rand"
	"time"
)

// WithRetry runs fn up to attempts times with exponential backoff plus
// jitter, respecting context cancellation between attempts. The last error
// is returned when every attempt fails.
func WithRetry(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	fn func() error,
) error {
	var err error

	for i := 1; i <= attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}

		// No sleep after the last attempt.
		if i == attempts {
			break
		}

		sleep := baseDelay * time.Duration(1<<uint(i-1))
		jitter := time.Duration(rand.Int63n(int64(baseDelay)))
		totalSleep := sleep + jitter

		select {
		case <-time.After(totalSleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
