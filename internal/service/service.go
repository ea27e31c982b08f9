package service

import (
	"errors"

	"github.com/classlink/classlink-backend/internal/config"
	"github.com/classlink/classlink-backend/internal/email"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/socket"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidState       = errors.New("request is no longer pending")
	ErrInvalidInput       = errors.New("invalid input")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	Channel      ChannelService
	Merge        MergeService
	Visibility   VisibilityService
	Notification NotificationService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	EmailSvc    *email.Service
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	notificationService := NewNotificationService(deps.Repos.NotificationRepo, deps.Broadcaster)

	return &Services{
		Auth: NewAuthService(deps.Config, deps.Repos.UserRepo),
		Channel: NewChannelService(
			deps.Repos.ChannelRepo,
			deps.Repos.HubRepo,
		),
		Merge: NewMergeService(
			deps.Repos.ChannelRepo,
			deps.Repos.MergeRequestRepo,
			deps.Repos.HubRepo,
			deps.Repos.UserRepo,
			notificationService,
			deps.EmailSvc,
			deps.Broadcaster,
		),
		Visibility: NewVisibilityService(
			deps.Repos.ChannelRepo,
			deps.Repos.HubRepo,
			deps.Repos.UserRepo,
		),
		Notification: notificationService,
		Broadcaster:  deps.Broadcaster,
	}
}
