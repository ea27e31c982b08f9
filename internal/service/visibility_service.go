package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/types"
)

// VisibilityService projects the user list a hub exposes. Each member
// channel's privacy mode is read at projection time, so flipping a channel
// to ANONYMOUS takes effect on the next roster read.
type VisibilityService interface {
	HubRoster(ctx context.Context, actorUserID, hubID string) ([]models.RosterEntry, error)
}

type visibilityService struct {
	channelRepo repository.ChannelRepository
	hubRepo     repository.HubRepository
	userRepo    repository.UserRepository
}

func NewVisibilityService(
	channelRepo repository.ChannelRepository,
	hubRepo repository.HubRepository,
	userRepo repository.UserRepository,
) VisibilityService {
	return &visibilityService{
		channelRepo: channelRepo,
		hubRepo:     hubRepo,
		userRepo:    userRepo,
	}
}

func (s *visibilityService) HubRoster(ctx context.Context, actorUserID, hubID string) ([]models.RosterEntry, error) {
	hub, err := s.hubRepo.FindByID(ctx, hubID)
	if err != nil {
		return nil, err
	}
	if hub == nil {
		return nil, ErrNotFound
	}

	memberships, err := s.hubRepo.ListMemberships(ctx, hubID)
	if err != nil {
		return nil, err
	}

	authorized := false
	for _, m := range memberships {
		ok, err := s.channelRepo.IsMember(ctx, m.ChannelID, actorUserID)
		if err != nil {
			return nil, err
		}
		if ok {
			authorized = true
			break
		}
	}
	if !authorized {
		return nil, ErrUnauthorized
	}

	var roster []models.RosterEntry
	for _, m := range memberships {
		channel, err := s.channelRepo.FindByID(ctx, m.ChannelID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			continue
		}

		users, err := s.channelUsers(ctx, channel)
		if err != nil {
			return nil, err
		}

		for _, user := range users {
			entry := models.RosterEntry{
				ChannelID:   channel.ID,
				ChannelName: channel.Name,
			}
			if channel.PrivacyMode == types.PrivacyAnonymous {
				entry.DisplayName = hubAlias(hub.AliasSeed, user.ID)
				entry.Anonymous = true
			} else {
				entry.UserID = user.ID
				entry.DisplayName = user.Name
			}
			roster = append(roster, entry)
		}
	}
	return roster, nil
}

// channelUsers returns the channel's admin plus its joined members, deduped.
func (s *visibilityService) channelUsers(ctx context.Context, channel *repository.Channel) ([]*repository.User, error) {
	seen := make(map[string]bool)
	var users []*repository.User

	if admin, err := s.userRepo.FindByID(ctx, channel.AdminUserID); err != nil {
		return nil, err
	} else if admin != nil {
		seen[admin.ID] = true
		users = append(users, admin)
	}

	members, err := s.channelRepo.ListMembers(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.User == nil || seen[m.User.ID] {
			continue
		}
		seen[m.User.ID] = true
		users = append(users, m.User)
	}
	return users, nil
}

// hubAlias derives a pseudonym that is stable for a user within one hub but
// cannot be linked to the same user in another hub: the key is the hub's own
// random seed, so aliases from different hubs share nothing.
func hubAlias(aliasSeed, userID string) string {
	mac := hmac.New(sha256.New, []byte(aliasSeed))
	mac.Write([]byte(userID))
	return "anon-" + hex.EncodeToString(mac.Sum(nil))[:8]
}
