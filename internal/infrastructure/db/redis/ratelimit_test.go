package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLimiter(client, limit, window), mr
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "auth", "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d should be inside the limit", i)
		}
	}

	ok, err := limiter.Allow(ctx, "auth", "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatalf("fourth request should exceed the limit")
	}
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, err := limiter.Allow(ctx, "auth", "10.0.0.1"); err != nil || !ok {
		t.Fatalf("first IP: ok=%v err=%v", ok, err)
	}
	if ok, err := limiter.Allow(ctx, "auth", "10.0.0.2"); err != nil || !ok {
		t.Fatalf("second IP must have its own counter: ok=%v err=%v", ok, err)
	}
	if ok, err := limiter.Allow(ctx, "other", "10.0.0.1"); err != nil || !ok {
		t.Fatalf("scopes must have their own counters: ok=%v err=%v", ok, err)
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "auth", "10.0.0.1"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "auth", "10.0.0.1"); ok {
		t.Fatalf("second request should be blocked")
	}

	mr.FastForward(2 * time.Minute)

	ok, err := limiter.Allow(ctx, "auth", "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow after window: %v", err)
	}
	if !ok {
		t.Fatalf("counter should reset after the window expires")
	}
}

func TestLimiter_ErrorWhenRedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	if _, err := limiter.Allow(context.Background(), "auth", "10.0.0.1"); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
