package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/types"
	"github.com/google/uuid"
)

// ChannelService covers channel registration, membership and the per-channel
// merge settings that the discovery list is built from.
type ChannelService interface {
	Create(ctx context.Context, adminUserID, name string) (*repository.Channel, error)
	Join(ctx context.Context, userID, joinCode string) (*repository.Channel, error)
	ListMine(ctx context.Context, userID string) ([]*repository.Channel, error)
	GetByID(ctx context.Context, channelID string) (*repository.Channel, error)

	GetSettings(ctx context.Context, channelID string) (*models.SettingsResponse, error)
	UpdateSettings(ctx context.Context, channelID, actorUserID string, allowMerge bool, privacyMode string) error
	ListAvailable(ctx context.Context, channelID, actorUserID string) ([]models.ChannelSummary, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
	hubRepo     repository.HubRepository
}

func NewChannelService(channelRepo repository.ChannelRepository, hubRepo repository.HubRepository) ChannelService {
	return &channelService{channelRepo: channelRepo, hubRepo: hubRepo}
}

func (s *channelService) Create(ctx context.Context, adminUserID, name string) (*repository.Channel, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}

	channel := &repository.Channel{
		Name:        strings.TrimSpace(name),
		JoinCode:    newJoinCode(),
		AdminUserID: adminUserID,
		AllowMerge:  false,
		PrivacyMode: types.PrivacyPublic,
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return channel, nil
}

func (s *channelService) Join(ctx context.Context, userID, joinCode string) (*repository.Channel, error) {
	channel, err := s.channelRepo.FindByJoinCode(ctx, strings.TrimSpace(joinCode))
	if err != nil {
		return nil, fmt.Errorf("failed to look up join code: %w", err)
	}
	if channel == nil {
		return nil, ErrNotFound
	}
	if err := s.channelRepo.AddMember(ctx, channel.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to join channel: %w", err)
	}
	return channel, nil
}

func (s *channelService) ListMine(ctx context.Context, userID string) ([]*repository.Channel, error) {
	return s.channelRepo.ListByUser(ctx, userID)
}

func (s *channelService) GetByID(ctx context.Context, channelID string) (*repository.Channel, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrNotFound
	}
	return channel, nil
}

func (s *channelService) GetSettings(ctx context.Context, channelID string) (*models.SettingsResponse, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrNotFound
	}
	return &models.SettingsResponse{
		AllowMerge:  channel.AllowMerge,
		PrivacyMode: channel.PrivacyMode,
	}, nil
}

func (s *channelService) UpdateSettings(ctx context.Context, channelID, actorUserID string, allowMerge bool, privacyMode string) error {
	if !types.IsValidPrivacyMode(privacyMode) {
		return ErrInvalidInput
	}

	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return ErrNotFound
	}
	if channel.AdminUserID != actorUserID {
		return ErrUnauthorized
	}

	// Written straight through; discovery reads the row directly so the
	// change is visible on the next call.
	return s.channelRepo.UpdateSettings(ctx, channelID, allowMerge, privacyMode)
}

func (s *channelService) ListAvailable(ctx context.Context, channelID, actorUserID string) ([]models.ChannelSummary, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrNotFound
	}
	if channel.AdminUserID != actorUserID {
		return nil, ErrUnauthorized
	}

	// Channels with a pending request to/from the caller stay listed;
	// duplicates are rejected at send time instead.
	channels, err := s.channelRepo.ListMergeable(ctx, channelID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChannelSummary, 0, len(channels))
	for _, c := range channels {
		summaries = append(summaries, models.ChannelSummary{ID: c.ID, Name: c.Name})
	}
	return summaries, nil
}

func newJoinCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
