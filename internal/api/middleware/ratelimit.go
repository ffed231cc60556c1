package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/pkg/ratelimit"
)

// RateLimitConfig 인메모리 토큰 버킷 Rate Limit 설정
type RateLimitConfig struct {
	Capacity   int64                     // Maximum number of requests
	RefillRate int64                     // Requests per second
	KeyFunc    func(*gin.Context) string // Function to extract rate limit key
}

// RedisRateLimitConfig Redis 기반 Rate Limit 설정
type RedisRateLimitConfig struct {
	Limiter *ratelimit.RedisRateLimiter
	Limit   int           // 윈도우 내 최대 요청 수
	Window  time.Duration // 윈도우 크기
	KeyFunc func(*gin.Context) string
}

// DefaultKeyFunc uses user ID if authenticated, otherwise IP address
func DefaultKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}

	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// IPKeyFunc uses only IP address (for public endpoints)
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// UserKeyFunc uses only user ID (requires authentication)
func UserKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return ""
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	limiter := ratelimit.NewRateLimiter(config.Capacity, config.RefillRate)

	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required for rate limiting",
			})
			c.Abort()
			return
		}

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(config.Capacity, 10))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
			c.Header("Retry-After", "1")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %d requests per second", config.RefillRate),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(config.Capacity, 10))

		c.Next()
	}
}

// GeneralAPIRateLimit - 100 requests burst, 10 per second per IP/user
func GeneralAPIRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   100,
		RefillRate: 10,
		KeyFunc:    DefaultKeyFunc,
	})
}

// AuthRateLimit - 5 login/register attempts burst per IP
func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   5,
		RefillRate: 1,
		KeyFunc:    IPKeyFunc,
	})
}

// RedisRateLimitMiddleware Redis 기반 분산 Rate Limiting 미들웨어
func RedisRateLimitMiddleware(config RedisRateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required for rate limiting",
			})
			c.Abort()
			return
		}

		ctx := context.Background()
		allowed, info, err := config.Limiter.AllowWithInfo(ctx, key, config.Limit, config.Window)

		if err != nil {
			// Redis 오류 시 요청 허용 (Fail-open)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(info.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Limit: %d per %v", config.Limit, config.Window),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Redis 기반 Rate Limit 프리셋 (Limiter가 주입되어야 사용 가능)

// RedisQueueEntryRateLimit Redis 기반 큐 등록 Rate Limit (10회/분)
func RedisQueueEntryRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RedisRateLimitMiddleware(RedisRateLimitConfig{
		Limiter: limiter,
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: UserKeyFunc,
	})
}

// RedisFeedbackRateLimit Redis 기반 피드백 제출 Rate Limit (20회/분)
func RedisFeedbackRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RedisRateLimitMiddleware(RedisRateLimitConfig{
		Limiter: limiter,
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: UserKeyFunc,
	})
}

// RedisAuthRateLimit Redis 기반 인증 Rate Limit (5회/분)
func RedisAuthRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RedisRateLimitMiddleware(RedisRateLimitConfig{
		Limiter: limiter,
		Limit:   5,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc, // IP 기반 (인증 전이므로)
	})
}
