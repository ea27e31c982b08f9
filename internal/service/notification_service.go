package service

import (
	"context"
	"log"

	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/socket"
)

type NotificationService interface {
	Notify(ctx context.Context, userID, kind, message string)
	List(ctx context.Context, userID string) ([]models.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

func NewNotificationService(notificationRepo repository.NotificationRepository, broadcaster *socket.Broadcaster) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
	}
}

// Notify stores a notification and pushes it to the user's live connections.
// Failures are logged, not returned: notifications never fail the operation
// that produced them.
func (s *notificationService) Notify(ctx context.Context, userID, kind, message string) {
	notification := &repository.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("[Notification] Failed to store notification for user %s: %v", userID, err)
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.SendNotification(userID, map[string]interface{}{
			"id":      notification.ID,
			"kind":    notification.Kind,
			"message": notification.Message,
		})
	}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]models.NotificationResponse, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, 50)
	if err != nil {
		return nil, err
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, models.NotificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return responses, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
