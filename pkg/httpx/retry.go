package httpx

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn until it succeeds, up to maxAttempts times, waiting delay between attempts.
//
// The wait respects ctx. Measured requests must not go through Retry.
func Retry(ctx context.Context, maxAttempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// This will hold the error that will be returned if all attempts fail.
	var errFinal error

	for i := 0; i < maxAttempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		errFinal = err
		// Don't wait after the last attempt.
		if i == maxAttempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", maxAttempts, errFinal)
}
