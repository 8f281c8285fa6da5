package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLocalWindowLimiterDeniesOverLimit(t *testing.T) {
	limiter := NewLocalWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "ip", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	d, err := limiter.Allow(ctx, "ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected denial over limit")
	}
	if d.RetryAfter <= 0 {
		t.Fatal("expected positive retry-after")
	}

	// Independent keys keep their own budget.
	d, err = limiter.Allow(ctx, "other-ip", 3, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("expected independent key to be allowed: %+v %v", d, err)
	}
}

func TestRateLimiterMiddlewareReturns429(t *testing.T) {
	rl := NewRateLimiter(NewLocalWindowLimiter(), 2, time.Minute, "login")
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func newRedisLimiterForTest(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWindowLimiter(client, "rl_test"), server
}

func TestRedisWindowLimiter(t *testing.T) {
	limiter, server := newRedisLimiterForTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "ip", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	d, err := limiter.Allow(ctx, "ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected denial over limit")
	}

	// Window rollover clears the counter.
	server.FastForward(2 * time.Minute)
	d, err = limiter.Allow(ctx, "ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow after rollover: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected allowance after window rollover")
	}
}

func TestRateLimiterFailsClosedOnBackendError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	rl := NewRateLimiter(NewRedisWindowLimiter(client, "rl_closed"), 10, time.Minute, "login")
	server.Close()

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed 429, got %d", rr.Code)
	}
}
