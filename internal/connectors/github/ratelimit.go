package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/throttle"
)

const (
	// hourlyQuota is the authenticated REST quota.
	hourlyQuota = 5000
	// steadyRate spends about 4300 requests an hour, leaving headroom for
	// other tools sharing the token.
	steadyRate = 1.2
	// reserve is how many requests are kept back; below it calls wait for
	// the quota reset.
	reserve = 100
)

// RateLimiter paces calls and tracks the X-RateLimit-* quota headers.
type RateLimiter struct {
	*throttle.Limiter

	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
}

func NewRateLimiter() *RateLimiter {
	return newRateLimiter(throttle.New(steadyRate, 1))
}

// UnlimitedRateLimiter still honours quota resets but never paces.
func UnlimitedRateLimiter() *RateLimiter {
	return newRateLimiter(throttle.Unlimited())
}

func newRateLimiter(l *throttle.Limiter) *RateLimiter {
	return &RateLimiter{Limiter: l, remaining: hourlyQuota, limit: hourlyQuota}
}

// UpdateFromResponse records the quota headers and holds further calls
// until the reset once fewer than reserve requests remain.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	h := resp.Header

	r.mu.Lock()
	if v, err := strconv.Atoi(h.Get("X-RateLimit-Remaining")); err == nil {
		r.remaining = v
	}
	if v, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		r.limit = v
	}
	if v, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		r.resetAt = time.Unix(v, 0)
	}
	low, reset := r.remaining < reserve, r.resetAt
	r.mu.Unlock()

	if low {
		r.HoldUntil(reset)
	}
}

func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}
