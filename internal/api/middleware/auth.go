package middleware

import (
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/response"
	"Murmur/internal/pkg/security"
	"Murmur/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken 优先取 Authorization 头，WebSocket 握手无法设置头时取 query token
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

func inject(c *gin.Context, claims *security.UserClaims) {
	c.Set(consts.UserIDKey, claims.UserID)
	c.Set(consts.UsernameKey, claims.Username)
	c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), claims.UserID))
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(tm *security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		claims, err := tm.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		inject(c, claims)
		c.Next()
	}
}

// AuthOptionalMiddleware 可选鉴权：解析成功注入身份，失败或缺失按匿名处理
func AuthOptionalMiddleware(tm *security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := BearerToken(c); tokenString != "" {
			if claims, err := tm.ValidateToken(tokenString); err == nil {
				inject(c, claims)
			}
		}
		c.Next()
	}
}
