package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/pkg/auth"
	"github.com/d60-Lab/chirp/pkg/response"
)

// ContextUserID gin 上下文中保存调用方用户 ID 的 key
const ContextUserID = "user_id"

// RequireAuth 校验 Bearer token，失败返回 401
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ContextUserID, claims.Subject)
		c.Next()
	}
}

// OptionalAuth 有合法 token 时记录调用方，没有也放行
func OptionalAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := tokens.Parse(token); err == nil {
				c.Set(ContextUserID, claims.Subject)
			}
		}
		c.Next()
	}
}

// CurrentUserID 未认证时返回空串
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
