package ai

import (
	"context"
	"time"
)

const (
	maxEmbedAttempts  = 3
	embedRetryBackoff = 500 * time.Millisecond
)

// withRetry runs fn with bounded exponential backoff. Providers use it on
// embedding calls so transient throttling is absorbed here instead of
// surfacing to the pipeline.
func withRetry(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var err error
	backoff := embedRetryBackoff
	for attempt := 0; attempt < maxEmbedAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}
