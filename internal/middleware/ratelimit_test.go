package middleware

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{Max: max, Window: window, KeyFn: KeyByIP})
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl := newTestLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("test-ip") {
		t.Fatal("6th request should be blocked")
	}
}

func TestRateLimiter_DifferentKeysIndependent(t *testing.T) {
	rl := newTestLimiter(t, 2, time.Minute)

	rl.Allow("ip-a")
	rl.Allow("ip-a")

	if rl.Allow("ip-a") {
		t.Fatal("ip-a should be blocked")
	}
	if !rl.Allow("ip-b") {
		t.Fatal("ip-b should be allowed (independent key)")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newTestLimiter(t, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("test")
	rl.Allow("test")
	if rl.Allow("test") {
		t.Fatal("should be blocked within window")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("test") {
		t.Fatal("should be allowed after window reset")
	}
}

func TestRateLimiter_SyncConfig(t *testing.T) {
	rl := NewSyncRateLimiter()
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if !rl.Allow("ip:127.0.0.1") {
			t.Fatalf("sync request %d should be allowed (max 2)", i+1)
		}
	}
	if rl.Allow("ip:127.0.0.1") {
		t.Fatal("3rd sync request should be blocked")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newTestLimiter(t, 1, time.Minute)
	rl.Stop()
	rl.Stop()
}
