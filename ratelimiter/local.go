package ratelimiter

import (
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is an in-memory token bucket refilled continuously at
// RequestsPerMinute, holding at most Burst requests.
type RateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing requestsPerMinute with the given burst.
// A burst below one is raised to one. A non-positive rate yields a limiter
// that never refuses.
func New(requestsPerMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// TryConsume atomically checks capacity and consumes n requests if available.
func (rl *RateLimiter) TryConsume(n int) bool {
	return rl.limiter.AllowN(rl.now(), n)
}

// TimeUntilAvailable returns how long until n requests would be available.
// This does not modify state - use for informational purposes.
func (rl *RateLimiter) TimeUntilAvailable(n int) time.Duration {
	now := rl.now()
	r := rl.limiter.ReserveN(now, n)
	if !r.OK() {
		return rate.InfDuration
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}
