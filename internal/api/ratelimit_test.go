package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterCeiling(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return clock }
	cfg := RateLimitConfig{MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("1.2.3.4|/api/auth/login", cfg); !allowed {
			t.Fatalf("request %d within the ceiling must be allowed", i+1)
		}
	}
	allowed, retryAfter := limiter.Allow("1.2.3.4|/api/auth/login", cfg)
	if allowed {
		t.Fatalf("request above the ceiling must be rejected")
	}
	if retryAfter <= 0 || retryAfter > 61 {
		t.Fatalf("unexpected retry-after: %d", retryAfter)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter()
	cfg := RateLimitConfig{MaxRequests: 1, Window: time.Minute}

	if allowed, _ := limiter.Allow("1.2.3.4|/a", cfg); !allowed {
		t.Fatalf("first request for key must be allowed")
	}
	if allowed, _ := limiter.Allow("1.2.3.4|/a", cfg); allowed {
		t.Fatalf("second request for key must be rejected")
	}
	if allowed, _ := limiter.Allow("1.2.3.4|/b", cfg); !allowed {
		t.Fatalf("other path must have its own window")
	}
	if allowed, _ := limiter.Allow("5.6.7.8|/a", cfg); !allowed {
		t.Fatalf("other client must have its own window")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return clock }
	cfg := RateLimitConfig{MaxRequests: 1, Window: time.Minute}

	limiter.Allow("k", cfg)
	if allowed, _ := limiter.Allow("k", cfg); allowed {
		t.Fatalf("expected rejection inside the window")
	}

	clock = clock.Add(time.Minute + time.Second)
	if allowed, _ := limiter.Allow("k", cfg); !allowed {
		t.Fatalf("a fresh window must allow requests again")
	}
	if len(limiter.records) != 1 {
		t.Fatalf("expired records must be evicted, have %d", len(limiter.records))
	}
}

func TestRateLimiterRefund(t *testing.T) {
	limiter := NewRateLimiter()
	cfg := RateLimitConfig{MaxRequests: 1, Window: time.Minute}

	limiter.Allow("k", cfg)
	limiter.Refund("k")
	if allowed, _ := limiter.Allow("k", cfg); !allowed {
		t.Fatalf("refunded request must not count against the ceiling")
	}

	// Refunding an unknown key is a no-op.
	limiter.Refund("unknown")
}

func TestRateKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	if got := rateKey(req); got != "10.0.0.9|/api/employees" {
		t.Fatalf("rateKey = %q", got)
	}

	req.RemoteAddr = "10.0.0.9"
	if got := rateKey(req); got != "10.0.0.9|/api/employees" {
		t.Fatalf("rateKey without port = %q", got)
	}
}
