package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/middleware"
	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/service"
)

// MetadataHandler 处理与功能元数据相关的 API 请求。
type MetadataHandler struct {
	metadata service.MetadataService
	auth     service.AuthService
}

// NewMetadataHandler 创建一个新的 MetadataHandler。
func NewMetadataHandler(metadata service.MetadataService, auth service.AuthService) *MetadataHandler {
	return &MetadataHandler{metadata: metadata, auth: auth}
}

// ListForFunction 处理 GET /functions/{id}/metadata。
func (h *MetadataHandler) ListForFunction(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.metadata.GetMetadata(&id, nil, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// AddToFunction 处理 POST /functions/{id}/metadata，要求功能访问权限或超级用户。
func (h *MetadataHandler) AddToFunction(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()
	if !h.auth.HasFunctionAccess(ctx, userID, id) && !h.auth.HasSuperUserAccess(ctx, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req model.CreateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.metadata.AddMetadata(ctx, id, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FunctionAccess 处理 GET /functions/{id}/metadata/access。
func (h *MetadataHandler) FunctionAccess(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()
	hasAccess := h.auth.HasFunctionAccess(ctx, userID, id) || h.auth.HasSuperUserAccess(ctx, userID)
	c.JSON(http.StatusOK, hasAccess)
}

// Query 处理 GET /metadata?functionId=&key=&value=，过滤条件为 AND 关系。
func (h *MetadataHandler) Query(c *gin.Context) {
	var functionID *uint
	if raw := c.Query("functionId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid functionId parameter"})
			return
		}
		id := uint(parsed)
		functionID = &id
	}

	var key, value *string
	if raw := c.Query("key"); raw != "" {
		key = &raw
	}
	if raw := c.Query("value"); raw != "" {
		value = &raw
	}

	entries, err := h.metadata.GetMetadata(functionID, key, value)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Indicators 处理 GET /metadata/indicator?key=&value=&functionId=。
func (h *MetadataHandler) Indicators(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you have to supply a metadata key"})
		return
	}

	rawID := c.Query("functionId")
	parsed, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid functionId parameter"})
		return
	}

	var value *string
	if raw := c.Query("value"); raw != "" {
		value = &raw
	}

	functions, err := h.metadata.GetIndicators(key, value, uint(parsed))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, functions)
}

// Keys 处理 GET /metadata/keys?search=。
func (h *MetadataHandler) Keys(c *gin.Context) {
	keys, err := h.metadata.GetKeys(c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, keys)
}

// Update 处理 PATCH /metadata/{id}，要求元数据访问权限或超级用户。
func (h *MetadataHandler) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()
	if !h.auth.HasMetadataAccess(ctx, userID, id) && !h.auth.HasSuperUserAccess(ctx, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req model.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.metadata.UpdateMetadataValue(id, req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete 处理 DELETE /metadata/{id}，要求元数据访问权限或超级用户。
func (h *MetadataHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()
	if !h.auth.HasMetadataAccess(ctx, userID, id) && !h.auth.HasSuperUserAccess(ctx, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.metadata.DeleteMetadata(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
