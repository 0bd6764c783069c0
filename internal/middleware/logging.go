package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/pkg/log"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
