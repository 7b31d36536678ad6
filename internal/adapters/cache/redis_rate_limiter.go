package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces a fixed one-minute window per client key.
// The counter key embeds the minute bucket so expiry handles cleanup.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewRedisRateLimiter(client *redis.Client, limit int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	bucket := fmt.Sprintf("delivery:rate:%s:%d", key, now.Unix()/60)
	count, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = l.client.Expire(ctx, bucket, 2*time.Minute).Err()
	}
	return count <= int64(l.limit), nil
}
