package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter allows at most max hits per key within each window.
// The window starts at the first hit for a key.
type FixedWindowLimiter struct {
	redis  *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func NewFixedWindowLimiter(client *redis.Client, prefix string, max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redis:  client,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = l.prefix + key

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("limiter incr: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("limiter expire: %w", err)
		}
	}

	return count <= l.max, nil
}
