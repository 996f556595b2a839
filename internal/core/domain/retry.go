package domain

import (
	"context"
	"time"
)

// RetryPolicy retries retryable failures with a backoff between attempts.
// The scheduler wraps each connector-driven sync run in one.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff returns the wait before retry number attempt (starting at 1).
	Backoff func(attempt int) time.Duration
}

// DefaultRetryPolicy retries three times with exponential backoff capped at a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Backoff:    ExponentialBackoff(time.Second, time.Minute),
	}
}

// ExponentialBackoff returns base*2^(attempt-1), capped at limit.
func ExponentialBackoff(base, limit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= limit {
				return limit
			}
		}
		return d
	}
}

// Do runs fn, retrying while it returns a retryable error.
// Non-retryable errors and context cancellation return immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || !IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}
		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt + 1)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
