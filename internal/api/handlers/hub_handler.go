package handlers

import (
	"net/http"

	"github.com/classlink/classlink-backend/internal/api/middleware"
	"github.com/classlink/classlink-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// HubHandler handles hub listing, roster projection and unmerge
type HubHandler struct {
	mergeService      service.MergeService
	visibilityService service.VisibilityService
}

// UnmergeRequest represents the request body for leaving a hub
type UnmergeRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
}

// ListMyHubs lists the hub a channel currently belongs to, if any
func (h *HubHandler) ListMyHubs(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	channelID := c.Query("channelId")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channelId is required"})
		return
	}

	hubs, err := h.mergeService.ListMyHubs(c.Request.Context(), userID, channelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, hubs)
}

// Roster returns the hub's projected user list
func (h *HubHandler) Roster(c *gin.Context) {
	hubID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	roster, err := h.visibilityService.HubRoster(c.Request.Context(), userID, hubID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// Unmerge removes a channel from a hub
func (h *HubHandler) Unmerge(c *gin.Context) {
	hubID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req UnmergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mergeService.Unmerge(c.Request.Context(), userID, hubID, req.ChannelID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Channel removed from hub"})
}
