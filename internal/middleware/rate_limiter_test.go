package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterAllowsWithinBudget(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute, 2, time.Minute)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first request allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected second request allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third request rejected")
	}

	// A different caller has its own budget.
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected a fresh key to be allowed")
	}
}

func TestIPRateLimiterExpiresIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 1, time.Minute)

	internal, ok := limiter.(*ipRateLimiter)
	if !ok {
		t.Fatalf("unexpected limiter type %T", limiter)
	}

	now := time.Now()
	internal.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first request allowed")
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("trigger-gc")

	internal.mu.Lock()
	_, present := internal.visitors["1.2.3.4"]
	internal.mu.Unlock()
	if present {
		t.Fatal("expected idle visitor to be evicted")
	}
}

func TestIPRateLimiterDefaultsEmptyKey(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 1, time.Minute)

	if !limiter.Allow("") {
		t.Fatal("expected empty key to fall back to a shared bucket")
	}
	if limiter.Allow("") {
		t.Fatal("expected shared bucket to be exhausted")
	}
}
