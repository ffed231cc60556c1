package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/pkg/logger"
)

// Logger HTTP 요청 로깅 미들웨어. 인증된 요청이면 userId도 함께 남긴다.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if userID, ok := c.Get("userId"); ok {
			fields = append(fields, "userId", userID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		logger.Info("HTTP request", fields...)
	}
}
