package handlers

import (
	"net/http"

	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	Channel      *ChannelHandler
	Merge        *MergeHandler
	Hub          *HubHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		Channel:      &ChannelHandler{channelService: services.Channel},
		Merge:        &MergeHandler{mergeService: services.Merge},
		Hub:          &HubHandler{mergeService: services.Merge, visibilityService: services.Visibility},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// handleServiceError maps service errors to HTTP responses
func handleServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case service.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	case service.ErrUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case service.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "Conflicting resource exists"})
	case service.ErrInvalidState:
		c.JSON(http.StatusConflict, gin.H{"error": "Request is no longer pending"})
	case service.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
	case service.ErrInvalidToken:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func toChannelResponse(c *repository.Channel) models.ChannelResponse {
	return models.ChannelResponse{
		ID:          c.ID,
		Name:        c.Name,
		JoinCode:    c.JoinCode,
		AdminUserID: c.AdminUserID,
		AllowMerge:  c.AllowMerge,
		PrivacyMode: c.PrivacyMode,
		CreatedAt:   c.CreatedAt,
	}
}

func toMergeRequestResponse(r *repository.MergeRequest) models.MergeRequestResponse {
	return models.MergeRequestResponse{
		ID:                r.ID,
		SenderChannelID:   r.SenderChannelID,
		ReceiverChannelID: r.ReceiverChannelID,
		MergeType:         r.MergeType,
		DurationDays:      r.DurationDays,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
	}
}
