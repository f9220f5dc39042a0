package ratelimiter

import (
	"testing"
	"time"
)

func TestRateLimiter_TryConsume(t *testing.T) {
	rl := New(60, 2)

	if !rl.TryConsume(1) {
		t.Error("should be able to proceed with 1st request")
	}
	if !rl.TryConsume(1) {
		t.Error("should be able to proceed within burst")
	}
	if rl.TryConsume(1) {
		t.Error("should not proceed when burst exhausted")
	}
}

func TestRateLimiter_BurstFloor(t *testing.T) {
	rl := New(60, 0)

	if !rl.TryConsume(1) {
		t.Error("burst below one should still allow a single request")
	}
	if rl.TryConsume(1) {
		t.Error("second request should be refused")
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := New(0, 1)

	for i := 0; i < 100; i++ {
		if !rl.TryConsume(1) {
			t.Fatalf("unlimited limiter refused request %d", i)
		}
	}
}

func TestRateLimiter_TimeUntilAvailable(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := New(60, 1) // 1 request per second
	rl.now = func() time.Time { return base }

	if wait := rl.TimeUntilAvailable(1); wait != 0 {
		t.Errorf("expected no wait on a full bucket, got %v", wait)
	}

	if !rl.TryConsume(1) {
		t.Fatal("failed to consume from full bucket")
	}

	wait := rl.TimeUntilAvailable(1)
	if wait < 900*time.Millisecond || wait > 1100*time.Millisecond {
		t.Errorf("expected wait around 1s, got %v", wait)
	}

	// Reading the wait must not consume capacity.
	rl.now = func() time.Time { return base.Add(time.Second) }
	if !rl.TryConsume(1) {
		t.Error("should succeed after refill")
	}
}
