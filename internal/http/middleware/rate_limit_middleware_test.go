package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockLimiter struct {
	allow bool
	retry time.Duration
	err   error
}

func (m mockLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return m.allow, m.retry, m.err
}

func TestDistributedRateLimiterFailOpenOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailOpen,
		"api",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open to allow request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterFailClosedOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailClosed,
		"auth",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed to reject request, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestDistributedRateLimiterDeniedSetsRetryAfter(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{allow: false, retry: 5 * time.Second},
		1,
		time.Minute,
		FailClosed,
		"api",
	)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("expected Retry-After=5, got %q", got)
	}
}

func TestLocalFixedWindowLimiter(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "10.0.0.1", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("first request should pass: allowed=%v err=%v", allowed, err)
	}
	allowed, _, err = limiter.Allow(ctx, "10.0.0.1", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("second request should pass: allowed=%v err=%v", allowed, err)
	}
	allowed, retryAfter, err := limiter.Allow(ctx, "10.0.0.1", 2, time.Minute)
	if err != nil {
		t.Fatalf("third request: %v", err)
	}
	if allowed {
		t.Fatal("third request should be throttled")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", retryAfter)
	}

	// A different key gets its own window.
	allowed, _, err = limiter.Allow(ctx, "10.0.0.2", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("request from other key should pass: allowed=%v err=%v", allowed, err)
	}
}

func TestClientIPKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	if got := clientIPKey(req); got != "192.0.2.7" {
		t.Fatalf("expected stripped host, got %q", got)
	}
	req.RemoteAddr = "garbage"
	if got := clientIPKey(req); got != "garbage" {
		t.Fatalf("expected raw addr fallback, got %q", got)
	}
}
