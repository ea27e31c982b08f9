package handlers

import (
	"net/http"

	"github.com/classlink/classlink-backend/internal/api/middleware"
	"github.com/classlink/classlink-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// MergeHandler handles merge request protocol endpoints
type MergeHandler struct {
	mergeService service.MergeService
}

// SendRequestRequest represents the request body for sending a merge request
type SendRequestRequest struct {
	SenderChannelID   string `json:"senderChannelId" binding:"required"`
	ReceiverChannelID string `json:"receiverChannelId" binding:"required"`
	MergeType         string `json:"mergeType" binding:"required"`
	DurationDays      int    `json:"durationDays"`
}

// AcceptRequestRequest represents the request body for accepting
type AcceptRequestRequest struct {
	HubName string `json:"hubName" binding:"required"`
}

// Send creates a new pending merge request
func (h *MergeHandler) Send(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req SendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.mergeService.SendRequest(c.Request.Context(), userID,
		req.SenderChannelID, req.ReceiverChannelID, req.MergeType, req.DurationDays)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMergeRequestResponse(request))
}

// ListPending lists pending requests addressed to a channel
func (h *MergeHandler) ListPending(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	channelID := c.Query("channelId")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channelId is required"})
		return
	}

	requests, err := h.mergeService.ListPending(c.Request.Context(), userID, channelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Accept accepts a pending request, forming or extending a hub
func (h *MergeHandler) Accept(c *gin.Context) {
	requestID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req AcceptRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hub, err := h.mergeService.Accept(c.Request.Context(), userID, requestID, req.HubName)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, hub)
}

// Reject rejects a pending request
func (h *MergeHandler) Reject(c *gin.Context) {
	requestID := c.Param("id")
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.mergeService.Reject(c.Request.Context(), userID, requestID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}
