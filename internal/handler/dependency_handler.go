package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/service"
)

// DependencyHandler 处理功能依赖边相关的 API 请求。
type DependencyHandler struct {
	dependencies service.DependencyService
}

// NewDependencyHandler 创建一个新的 DependencyHandler。
func NewDependencyHandler(dependencies service.DependencyService) *DependencyHandler {
	return &DependencyHandler{dependencies: dependencies}
}

// List 处理 GET /functions/{id}/dependencies。
func (h *DependencyHandler) List(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	deps, err := h.dependencies.GetDependencies(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deps)
}

// Dependents 处理 GET /functions/{id}/dependents。
func (h *DependencyHandler) Dependents(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	dependents, err := h.dependencies.GetDependents(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dependents)
}

// Create 处理 POST /functions/{id}/dependencies。
func (h *DependencyHandler) Create(c *gin.Context) {
	var dep model.FunctionDependency
	if err := c.ShouldBindJSON(&dep); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.dependencies.CreateDependency(dep)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// Delete 处理 DELETE /functions/{id}/dependencies/{dependencyId}。
func (h *DependencyHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	depID, ok := parseUintParam(c, "dependencyId")
	if !ok {
		return
	}

	err := h.dependencies.DeleteDependency(model.FunctionDependency{
		FunctionID:           id,
		DependencyFunctionID: depID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
