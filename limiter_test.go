package newsdesk

import (
	"testing"
	"time"
)

func TestTokenLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewTokenLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestTokenLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewTokenLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected check after a failure to be blocked")
	}

	now = now.Add(61 * time.Second)
	if !limiter.Check(ip) {
		t.Fatalf("expected check after window to be allowed")
	}
}

func TestTokenLimiterIsPerIP(t *testing.T) {
	limiter := NewTokenLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestTokenLimiterPruneDropsStaleIPs(t *testing.T) {
	limiter := NewTokenLimiter(3, time.Minute)
	defer limiter.Stop()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Record("203.0.113.40")
	now = now.Add(2 * time.Minute)
	limiter.prune()

	limiter.mu.Lock()
	n := len(limiter.attempts)
	limiter.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected stale entries to be pruned, have %d", n)
	}
}

func TestTokenLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewTokenLimiter(1, time.Millisecond)
	limiter.Stop()
	limiter.Stop()
}
