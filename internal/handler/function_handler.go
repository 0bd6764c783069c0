package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/middleware"
	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/service"
)

// FunctionHandler 处理与功能树相关的 API 请求。
type FunctionHandler struct {
	functions service.FunctionService
	metadata  service.MetadataService
	auth      service.AuthService
}

// NewFunctionHandler 创建一个新的 FunctionHandler。
func NewFunctionHandler(functions service.FunctionService, metadata service.MetadataService, auth service.AuthService) *FunctionHandler {
	return &FunctionHandler{functions: functions, metadata: metadata, auth: auth}
}

// List 处理 GET /functions，支持 search 查询参数。
func (h *FunctionHandler) List(c *gin.Context) {
	functions, err := h.functions.GetFunctions(c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, functions)
}

// Create 处理 POST /functions，支持附带一组初始元数据。
func (h *FunctionHandler) Create(c *gin.Context) {
	var req model.CreateFunctionWithMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Function.Name) == "" || req.Function.ParentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "function name and parent id are required"})
		return
	}

	created, err := h.functions.CreateFunction(req.Function)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// 元数据逐条写入，不与节点创建构成一个原子单元
	for _, m := range req.Metadata {
		if err := h.metadata.AddMetadata(c.Request.Context(), created.ID, m); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, created)
}

// Get 处理 GET /functions/{id}。
func (h *FunctionHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	f, err := h.functions.GetFunction(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Update 处理 PUT /functions/{id}，要求功能访问权限或超级用户。
func (h *FunctionHandler) Update(c *gin.Context) {
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

	var req model.UpdateFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.functions.UpdateFunction(id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete 处理 DELETE /functions/{id}，要求功能访问权限或超级用户。
func (h *FunctionHandler) Delete(c *gin.Context) {
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

	if _, err := h.functions.DeleteFunction(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Children 处理 GET /functions/{id}/children，按 orderIndex 升序返回。
func (h *FunctionHandler) Children(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	children, err := h.functions.GetChildren(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

// Access 处理 GET /functions/{id}/access，返回布尔访问检查结果。
func (h *FunctionHandler) Access(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()
	hasAccess := h.auth.HasFunctionAccess(ctx, userID, id) || h.auth.HasSuperUserAccess(ctx, userID)
	c.JSON(http.StatusOK, hasAccess)
}
