package audit

import (
	"context"
	"time"
)

// RetryPolicy owns the decision of when a failed attempt may be repeated
// and how long to wait before the next one. Backoff doubles per attempt:
// 1s, 2s, 4s with the default base.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NewRetryPolicy returns the default policy: 3 retries, 4 attempts total.
func NewRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// ShouldRetry reports whether another attempt is allowed after the 0-based
// attempt index.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}

// Backoff returns the delay before the attempt following the given one.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay << uint(attempt)
}

// Wait sleeps the backoff for attempt, honoring context cancellation. The
// delay only ever blocks the one URL being retried, never sibling checks.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	delay := p.Backoff(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
