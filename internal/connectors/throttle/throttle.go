// Package throttle paces connector API calls: a token bucket for the steady
// rate plus a hold window set when the remote side asks us to back off.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff applies when a 429 carries no Retry-After.
const DefaultBackoff = time.Minute

type Limiter struct {
	bucket *rate.Limiter

	mu   sync.Mutex
	hold time.Time
	now  func() time.Time
}

func New(perSecond float64, burst int) *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(perSecond), burst), now: time.Now}
}

// Unlimited never waits on the bucket. Hold windows still apply.
func Unlimited() *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1), now: time.Now}
}

// Wait blocks until the hold window has passed and a token is available.
func (l *Limiter) Wait(ctx context.Context) error {
	if d := l.Held(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.bucket.Wait(ctx)
}

// Allow takes a token without blocking. It is false while held.
func (l *Limiter) Allow() bool {
	return l.Held() <= 0 && l.bucket.Allow()
}

// Backoff holds all callers for d, or DefaultBackoff when d is not positive.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultBackoff
	}
	l.HoldUntil(l.now().Add(d))
}

// HoldUntil holds all callers until t. An earlier t never shortens an
// existing hold.
func (l *Limiter) HoldUntil(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.After(l.hold) {
		l.hold = t
	}
}

// Held is the time left in the hold window.
func (l *Limiter) Held() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hold.Sub(l.now())
}
