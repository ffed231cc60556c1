package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter Redis 기반 분산 Rate Limiter (슬라이딩 윈도우)
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// RateLimitInfo 현재 윈도우의 사용량 정보
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewRedisRateLimiter Redis Rate Limiter 생성
func NewRedisRateLimiter(client *redis.Client, keyPrefix string) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// AllowWithInfo 요청 허용 여부와 사용량 정보를 함께 반환
func (l *RedisRateLimiter) AllowWithInfo(ctx context.Context, key string, limit int, window time.Duration) (bool, *RateLimitInfo, error) {
	redisKey := l.keyPrefix + key
	now := time.Now()
	windowStart := now.Add(-window)

	// Lua 스크립트: 윈도우 밖 기록 제거 + 카운트 + 허용 시 기록 추가를 원자적으로
	script := redis.NewScript(`
		local key = KEYS[1]
		local window_start = ARGV[1]
		local now = ARGV[2]
		local limit = tonumber(ARGV[3])
		local window_ms = ARGV[4]

		redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)
		local count = redis.call("ZCARD", key)

		if count < limit then
			redis.call("ZADD", key, now, now .. "-" .. math.random(1000000))
			redis.call("PEXPIRE", key, window_ms)
			return {1, count + 1}
		end

		return {0, count}
	`)

	result, err := script.Run(ctx, l.client, []string{redisKey},
		windowStart.UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	allowed := result[0] == 1
	used := int(result[1])

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return allowed, &RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}

// Allow 요청 허용 여부만 반환
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, _, err := l.AllowWithInfo(ctx, key, limit, window)
	return allowed, err
}

// Reset 키의 사용 기록 삭제
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.keyPrefix+key).Err()
}
