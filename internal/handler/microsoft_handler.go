package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/middleware"
	"github.com/kartverket/frisk-backend/internal/service"
)

// MicrosoftHandler 把团队目录的只读查询暴露给前端。
type MicrosoftHandler struct {
	microsoft service.MicrosoftService
}

// NewMicrosoftHandler 创建一个新的 MicrosoftHandler。
func NewMicrosoftHandler(microsoft service.MicrosoftService) *MicrosoftHandler {
	return &MicrosoftHandler{microsoft: microsoft}
}

// MyTeams 处理 GET /microsoft/me/teams，返回当前用户所属的组。
func (h *MicrosoftHandler) MyTeams(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	teams, err := h.microsoft.GetMemberGroups(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// Team 处理 GET /microsoft/teams/{id}，按 ID 返回单个组。
func (h *MicrosoftHandler) Team(c *gin.Context) {
	groupID := c.Param("id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you have to supply a team id"})
		return
	}

	team, err := h.microsoft.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}
