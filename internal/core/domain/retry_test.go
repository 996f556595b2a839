package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(time.Second, 5*time.Second)

	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 4*time.Second, b(3))
	assert.Equal(t, 5*time.Second, b(4))
	assert.Equal(t, 5*time.Second, b(10))
}

func TestRetryPolicy_Do(t *testing.T) {
	ctx := context.Background()
	noWait := RetryPolicy{MaxRetries: 2, Backoff: func(int) time.Duration { return 0 }}

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		err := noWait.Do(ctx, func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("fetch: %w", ErrTransientConnector)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := noWait.Do(ctx, func(context.Context) error {
			calls++
			return ErrRateLimited
		})
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad config")
		err := noWait.Do(ctx, func(context.Context) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		slow := RetryPolicy{MaxRetries: 5, Backoff: func(int) time.Duration { return time.Hour }}
		cancel()
		err := slow.Do(cctx, func(context.Context) error { return ErrTransientConnector })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
