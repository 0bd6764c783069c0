// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/pkg/token"
)

// UserIDKey 是认证中间件写入 gin 上下文的用户标识键。
const UserIDKey = "userID"

// AuthMiddleware 创建一个 Gin 中间件，用于 Bearer JWT 认证。
// 它从请求头中提取 token，验证签名、签发者与受众，并把身份提供方的
// 用户对象 ID 存入上下文。任何解析失败都按未认证处理，绝不放行。
func AuthMiddleware(verifier *token.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// 后续的授权检查全部以这个目录用户 ID 为准
		c.Set(UserIDKey, claims.ObjectID)
		c.Next()
	}
}

// CurrentUserID 从 gin 上下文中取出认证中间件写入的用户 ID。
// 拿不到时返回空串，调用方应将其视为无权限（fail closed）。
func CurrentUserID(c *gin.Context) string {
	userID, ok := c.Get(UserIDKey)
	if !ok {
		return ""
	}
	id, _ := userID.(string)
	return id
}
