package util

import (
	"context"
	"time"
)

// maxRetryDelay caps the backoff so a large base delay cannot stall a run.
const maxRetryDelay = 5 * time.Second

// Retry runs fn until it returns nil, trying at most maxAttempts times. The
// wait between tries starts at baseDelay and doubles, capped at maxRetryDelay.
// A cancelled context ends the wait early with ctx.Err(); once every try has
// failed the last error is returned.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	wait := baseDelay
	var last error

	for try := 1; try <= maxAttempts; try++ {
		if last = fn(); last == nil {
			return nil
		}
		if try == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxRetryDelay {
			wait = maxRetryDelay
		}
	}

	return last
}
