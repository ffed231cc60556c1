package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/config"
	jwtutil "github.com/peermeet/peermeet-backend/pkg/jwt"
)

const bearerPrefix = "Bearer "

// Auth JWT 인증 미들웨어. 검증에 성공하면 userId/username/email을
// gin context에 싣는다. 이후의 핸들러는 userId가 항상 있다고 가정한다.
func Auth(cfg *config.Config) gin.HandlerFunc {
	manager := jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Bearer token required")
			return
		}

		claims, err := manager.Verify(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("email", claims.Email)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
