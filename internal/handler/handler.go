// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/service"
	"github.com/kartverket/frisk-backend/pkg/log"
)

// parseUintParam 解析路径参数为正整数 ID，非法时写入 400 响应并返回 false。
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Warnf("invalid %s parameter: %q", name, raw)
		c.JSON(http.StatusBadRequest, gin.H{"error": "you have to supply a valid integer id"})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError 把业务错误翻译成 HTTP 状态码。
// 未识别的错误按 500 返回，不向客户端暴露内部细节。
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error("unhandled service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
