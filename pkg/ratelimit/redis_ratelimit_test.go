package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisRateLimiter 테스트용 Redis Rate Limiter 설정
// 주의: 실제 Redis 서버가 필요합니다 (localhost:6379)
func setupRedisRateLimiter(t *testing.T) (*redis.Client, *RedisRateLimiter) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis server not available: %v", err)
	}

	client.FlushDB(ctx)

	return client, NewRedisRateLimiter(client, "test:ratelimit:")
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	client, limiter := setupRedisRateLimiter(t)
	defer client.Close()

	ctx := context.Background()
	key := "user:123"
	defer limiter.Reset(ctx, key)

	// 첫 요청은 항상 허용
	allowed, err := limiter.Allow(ctx, key, 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_SlidingWindow(t *testing.T) {
	client, limiter := setupRedisRateLimiter(t)
	defer client.Close()

	ctx := context.Background()
	key := "user:456"
	defer limiter.Reset(ctx, key)

	limit := 3
	window := time.Minute

	// 제한 내 요청은 모두 허용
	for i := 0; i < limit; i++ {
		allowed, err := limiter.Allow(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	// 제한 초과 요청은 거부
	allowed, err := limiter.Allow(ctx, key, limit, window)
	require.NoError(t, err)
	assert.False(t, allowed, "Request over limit should be denied")
}

func TestRedisRateLimiter_AllowWithInfo(t *testing.T) {
	client, limiter := setupRedisRateLimiter(t)
	defer client.Close()

	ctx := context.Background()
	key := "user:789"
	defer limiter.Reset(ctx, key)

	limit := 5
	window := time.Minute

	allowed, info, err := limiter.AllowWithInfo(ctx, key, limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
	require.NotNil(t, info)
	assert.Equal(t, limit, info.Limit)
	assert.Equal(t, limit-1, info.Remaining)
	assert.True(t, info.ResetAt.After(time.Now()))

	// 잔여 수는 요청마다 감소
	_, info, err = limiter.AllowWithInfo(ctx, key, limit, window)
	require.NoError(t, err)
	assert.Equal(t, limit-2, info.Remaining)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	client, limiter := setupRedisRateLimiter(t)
	defer client.Close()

	ctx := context.Background()
	key := "user:reset"

	limit := 2
	window := time.Minute

	for i := 0; i < limit; i++ {
		_, err := limiter.Allow(ctx, key, limit, window)
		require.NoError(t, err)
	}

	allowed, err := limiter.Allow(ctx, key, limit, window)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Reset 후 다시 허용
	require.NoError(t, limiter.Reset(ctx, key))

	allowed, err = limiter.Allow(ctx, key, limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_SeparateKeys(t *testing.T) {
	client, limiter := setupRedisRateLimiter(t)
	defer client.Close()

	ctx := context.Background()
	defer limiter.Reset(ctx, "user:a")
	defer limiter.Reset(ctx, "user:b")

	limit := 1
	window := time.Minute

	allowed, err := limiter.Allow(ctx, "user:a", limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)

	// user:a는 소진됐지만 user:b는 독립적
	allowed, err = limiter.Allow(ctx, "user:a", limit, window)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:b", limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}
