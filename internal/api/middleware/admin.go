package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/config"
)

// Admin 관리자 전용 엔드포인트 보호.
// X-Admin-Token 헤더가 설정된 토큰과 일치해야 통과한다.
func Admin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminToken == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin endpoints are disabled",
			})
			c.Abort()
			return
		}

		token := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid admin token",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
