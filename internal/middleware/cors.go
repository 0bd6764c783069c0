package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// CORS 创建一个只放行配置内主机的跨域中间件。
// 允许列表里的条目是主机名（含端口），协议不限。
func CORS(allowedHosts []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, host := range allowedHosts {
		allowed[host] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if parsed, err := url.Parse(origin); err == nil {
				if _, ok := allowed[parsed.Host]; ok {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
					c.Header("Access-Control-Allow-Credentials", "true")
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
