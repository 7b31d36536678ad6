package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	limiter := NewRedisRateLimiter(newMiniredisClient(t), 3)
	now := time.Date(2026, 8, 31, 12, 0, 30, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "203.0.113.10", now)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be within limit", i)
		}
	}
	allowed, err := limiter.Allow(context.Background(), "203.0.113.10", now)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed {
		t.Fatalf("fourth attempt must be rejected")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRedisRateLimiter(newMiniredisClient(t), 1)
	now := time.Now().UTC()

	if allowed, _ := limiter.Allow(context.Background(), "ip-a", now); !allowed {
		t.Fatalf("first ip-a attempt should pass")
	}
	if allowed, _ := limiter.Allow(context.Background(), "ip-a", now); allowed {
		t.Fatalf("second ip-a attempt should be rejected")
	}
	if allowed, _ := limiter.Allow(context.Background(), "ip-b", now); !allowed {
		t.Fatalf("ip-b must not share ip-a's budget")
	}
}

func TestRateLimiterWindowRolls(t *testing.T) {
	limiter := NewRedisRateLimiter(newMiniredisClient(t), 1)
	first := time.Date(2026, 8, 31, 12, 0, 59, 0, time.UTC)
	next := first.Add(time.Minute)

	if allowed, _ := limiter.Allow(context.Background(), "ip-a", first); !allowed {
		t.Fatalf("first window attempt should pass")
	}
	if allowed, _ := limiter.Allow(context.Background(), "ip-a", first); allowed {
		t.Fatalf("same-window attempt should be rejected")
	}
	if allowed, _ := limiter.Allow(context.Background(), "ip-a", next); !allowed {
		t.Fatalf("new window must reset the budget")
	}
}

func TestRateLimiterZeroLimitDisables(t *testing.T) {
	limiter := NewRedisRateLimiter(newMiniredisClient(t), 0)
	for i := 0; i < 10; i++ {
		if allowed, err := limiter.Allow(context.Background(), "ip-a", time.Now().UTC()); err != nil || !allowed {
			t.Fatalf("zero limit must disable limiting: allowed=%v err=%v", allowed, err)
		}
	}
}
