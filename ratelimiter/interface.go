package ratelimiter

import "time"

// Limiter defines the interface for request budgets.
// Implementations can be local (in-memory) or distributed (Redis, etc.).
// Callers never wait on a Limiter: a refused request fails immediately.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes n requests if available.
	// Returns true if the requests were consumed, false if insufficient capacity.
	TryConsume(n int) bool

	// TimeUntilAvailable returns how long until n requests would be available (read-only).
	TimeUntilAvailable(n int) time.Duration
}
