// Package retry holds the backoff and sleep primitives shared by the
// ClickUp client, the Graph extractor and the analysis engine.
package retry

import (
	"context"
	"time"
)

// BaseDelay is the initial delay for exponential backoff.
const BaseDelay = 1 * time.Second

// SleepFunc waits for d or until ctx is done. Clients take one so tests
// can record delays instead of waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Backoff returns the exponential backoff delay for the given zero-based
// attempt number. Delays are: 1s, 2s, 4s, ...
func Backoff(attempt int) time.Duration {
	delay := BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Sleep waits for the specified duration or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
