package cache

import (
	"context"
	"testing"
	"time"

	"event-ticketing/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFixedWindowLimiter(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewFixedWindowLimiter(client, "ticketing:", 2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "pwreset:user-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "pwreset:user-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "pwreset:user-2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are counted independently")

	assert.Equal(t, time.Hour, mr.TTL("ticketing:pwreset:user-1"))

	mr.FastForward(time.Hour + time.Second)
	allowed, err = limiter.Allow(ctx, "pwreset:user-1")
	require.NoError(t, err)
	assert.True(t, allowed, "a new window starts once the key expires")
}

func TestFixedWindowLimiter_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewFixedWindowLimiter(client, "", 1, time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient(context.Background(), redisConfig(mr.Addr()))
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), redisConfig(mr.Addr()))
	assert.Error(t, err)
}

func redisConfig(addr string) config.RedisConfig {
	return config.RedisConfig{Addr: addr}
}
