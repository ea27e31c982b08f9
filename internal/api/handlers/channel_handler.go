package handlers

import (
	"net/http"

	"github.com/classlink/classlink-backend/internal/api/middleware"
	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ChannelHandler handles channel and merge-settings requests
type ChannelHandler struct {
	channelService service.ChannelService
}

// CreateChannelRequest represents the request body for creating a channel
type CreateChannelRequest struct {
	Name string `json:"name" binding:"required"`
}

// JoinChannelRequest represents the request body for joining by code
type JoinChannelRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
}

// UpdateSettingsRequest represents the request body for merge settings
type UpdateSettingsRequest struct {
	AllowMerge  *bool  `json:"allowMerge" binding:"required"`
	PrivacyMode string `json:"privacyMode" binding:"required"`
}

// Create registers a new channel with the caller as admin
func (h *ChannelHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.channelService.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toChannelResponse(channel))
}

// Join adds the caller to a channel by join code
func (h *ChannelHandler) Join(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req JoinChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.channelService.Join(c.Request.Context(), userID, req.JoinCode)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(channel))
}

// ListMine lists channels the caller administers or has joined
func (h *ChannelHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	channels, err := h.channelService.ListMine(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.ChannelResponse, 0, len(channels))
	for _, channel := range channels {
		responses = append(responses, toChannelResponse(channel))
	}
	c.JSON(http.StatusOK, responses)
}

// GetSettings returns a channel's merge settings
func (h *ChannelHandler) GetSettings(c *gin.Context) {
	channelID := c.Param("id")

	settings, err := h.channelService.GetSettings(c.Request.Context(), channelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings changes a channel's merge settings (admin only)
func (h *ChannelHandler) UpdateSettings(c *gin.Context) {
	channelID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.channelService.UpdateSettings(c.Request.Context(), channelID, userID, *req.AllowMerge, req.PrivacyMode); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}

// ListAvailable lists channels open to merging, excluding the caller's own
func (h *ChannelHandler) ListAvailable(c *gin.Context) {
	channelID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	summaries, err := h.channelService.ListAvailable(c.Request.Context(), channelID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}
