package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/classlink/classlink-backend/internal/email"
	"github.com/classlink/classlink-backend/internal/models"
	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/socket"
	"github.com/classlink/classlink-backend/internal/types"
)

// MergeService orchestrates the merge request protocol and the hub
// lifecycle: send/accept/reject, multi-merge, manual unmerge and the
// expiry sweep all go through here.
type MergeService interface {
	SendRequest(ctx context.Context, actorUserID, senderChannelID, receiverChannelID, mergeType string, durationDays int) (*repository.MergeRequest, error)
	ListPending(ctx context.Context, actorUserID, channelID string) ([]models.MergeRequestResponse, error)
	Accept(ctx context.Context, actorUserID, requestID, hubName string) (*models.HubResponse, error)
	Reject(ctx context.Context, actorUserID, requestID string) error
	ListMyHubs(ctx context.Context, actorUserID, channelID string) ([]models.HubResponse, error)
	Unmerge(ctx context.Context, actorUserID, hubID, channelID string) error

	// ReapExpired removes every membership whose expiry has elapsed, using
	// the same unmerge path a manual call takes. Safe to run at any cadence.
	ReapExpired(ctx context.Context) (int, error)
}

type mergeService struct {
	channelRepo repository.ChannelRepository
	requestRepo repository.MergeRequestRepository
	hubRepo     repository.HubRepository
	userRepo    repository.UserRepository
	notifSvc    NotificationService
	emailSvc    *email.Service
	broadcaster *socket.Broadcaster
}

func NewMergeService(
	channelRepo repository.ChannelRepository,
	requestRepo repository.MergeRequestRepository,
	hubRepo repository.HubRepository,
	userRepo repository.UserRepository,
	notifSvc NotificationService,
	emailSvc *email.Service,
	broadcaster *socket.Broadcaster,
) MergeService {
	return &mergeService{
		channelRepo: channelRepo,
		requestRepo: requestRepo,
		hubRepo:     hubRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
		emailSvc:    emailSvc,
		broadcaster: broadcaster,
	}
}

func (s *mergeService) SendRequest(ctx context.Context, actorUserID, senderChannelID, receiverChannelID, mergeType string, durationDays int) (*repository.MergeRequest, error) {
	if !types.IsValidMergeType(mergeType) {
		return nil, ErrInvalidInput
	}
	if mergeType == types.MergeTemporary && durationDays <= 0 {
		return nil, ErrInvalidInput
	}
	if mergeType == types.MergePermanent {
		durationDays = 0
	}
	if senderChannelID == receiverChannelID {
		return nil, ErrInvalidInput
	}

	sender, err := s.channelRepo.FindByID(ctx, senderChannelID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.channelRepo.FindByID(ctx, receiverChannelID)
	if err != nil {
		return nil, err
	}
	if sender == nil || receiver == nil {
		return nil, ErrNotFound
	}
	if sender.AdminUserID != actorUserID {
		return nil, ErrUnauthorized
	}

	exists, err := s.requestRepo.ExistsPendingForPair(ctx, senderChannelID, receiverChannelID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	request := &repository.MergeRequest{
		SenderChannelID:   senderChannelID,
		ReceiverChannelID: receiverChannelID,
		MergeType:         mergeType,
		DurationDays:      durationDays,
		Status:            types.RequestPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}

	s.notifyRequestReceived(ctx, request, sender, receiver)

	return request, nil
}

func (s *mergeService) ListPending(ctx context.Context, actorUserID, channelID string) ([]models.MergeRequestResponse, error) {
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

	requests, err := s.requestRepo.FindPendingByReceiver(ctx, channelID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.MergeRequestResponse, 0, len(requests))
	for _, r := range requests {
		resp := models.MergeRequestResponse{
			ID:                r.ID,
			SenderChannelID:   r.SenderChannelID,
			ReceiverChannelID: r.ReceiverChannelID,
			MergeType:         r.MergeType,
			DurationDays:      r.DurationDays,
			Status:            r.Status,
			CreatedAt:         r.CreatedAt,
		}
		if sender, err := s.channelRepo.FindByID(ctx, r.SenderChannelID); err == nil && sender != nil {
			resp.SenderChannelName = sender.Name
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *mergeService) Accept(ctx context.Context, actorUserID, requestID, hubName string) (*models.HubResponse, error) {
	if strings.TrimSpace(hubName) == "" {
		return nil, ErrInvalidInput
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}
	if request.Status != types.RequestPending {
		return nil, ErrInvalidState
	}

	receiver, err := s.channelRepo.FindByID(ctx, request.ReceiverChannelID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrNotFound
	}
	if receiver.AdminUserID != actorUserID {
		return nil, ErrUnauthorized
	}

	senderMembership, err := s.hubRepo.FindMembershipByChannel(ctx, request.SenderChannelID)
	if err != nil {
		return nil, err
	}
	receiverMembership, err := s.hubRepo.FindMembershipByChannel(ctx, request.ReceiverChannelID)
	if err != nil {
		return nil, err
	}

	// Hubs are never unioned transitively: two channels already sitting in
	// different hubs cannot be connected by a single accept. Checked before
	// the status flip so the request stays PENDING and both hubs untouched.
	if senderMembership != nil && receiverMembership != nil && senderMembership.HubID != receiverMembership.HubID {
		return nil, ErrConflict
	}

	// The status flip is the exactly-once guard: of two concurrent accepts
	// only one sees the row still PENDING.
	won, err := s.requestRepo.UpdateStatusIfPending(ctx, requestID, types.RequestAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept merge request: %w", err)
	}
	if !won {
		return nil, ErrInvalidState
	}

	var expiresAt *time.Time
	if request.MergeType == types.MergeTemporary {
		t := time.Now().Add(time.Duration(request.DurationDays) * 24 * time.Hour)
		expiresAt = &t
	}

	var hubID string
	switch {
	case senderMembership == nil && receiverMembership == nil:
		hub := &repository.Hub{Name: strings.TrimSpace(hubName)}
		memberships := []*repository.HubMembership{
			{ChannelID: request.SenderChannelID, MergeType: request.MergeType, ExpiresAt: expiresAt},
			{ChannelID: request.ReceiverChannelID, MergeType: request.MergeType, ExpiresAt: expiresAt},
		}
		if err := s.hubRepo.CreateWithMembers(ctx, hub, memberships); err != nil {
			return nil, fmt.Errorf("failed to create hub: %w", err)
		}
		hubID = hub.ID
		if s.broadcaster != nil {
			s.broadcaster.BroadcastHubCreated(hubID, map[string]interface{}{
				"hubId": hubID,
				"name":  hub.Name,
			})
		}

	case senderMembership != nil && receiverMembership != nil:
		// Same hub on both sides: the channels are already connected, the
		// accept only settles the request.
		hubID = senderMembership.HubID

	default:
		// Multi-merge: pull the un-hubbed channel into the existing hub.
		// The existing hub keeps its name; hubName is ignored here.
		joining := request.SenderChannelID
		existing := receiverMembership
		if senderMembership != nil {
			joining = request.ReceiverChannelID
			existing = senderMembership
		}
		membership := &repository.HubMembership{
			HubID:     existing.HubID,
			ChannelID: joining,
			MergeType: request.MergeType,
			ExpiresAt: expiresAt,
		}
		if err := s.hubRepo.AddMember(ctx, membership); err != nil {
			return nil, fmt.Errorf("failed to join hub: %w", err)
		}
		hubID = existing.HubID
		if s.broadcaster != nil {
			s.broadcaster.BroadcastHubMemberJoined(hubID, map[string]interface{}{
				"hubId":     hubID,
				"channelId": joining,
			})
		}
	}

	s.notifyRequestResolved(ctx, request, true)

	return s.buildHubResponse(ctx, hubID)
}

func (s *mergeService) Reject(ctx context.Context, actorUserID, requestID string) error {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrNotFound
	}

	receiver, err := s.channelRepo.FindByID(ctx, request.ReceiverChannelID)
	if err != nil {
		return err
	}
	if receiver == nil {
		return ErrNotFound
	}
	if receiver.AdminUserID != actorUserID {
		return ErrUnauthorized
	}

	// Rejecting an already rejected request succeeds: the end state is
	// unchanged. Rejecting an accepted one is a real state error.
	if request.Status == types.RequestRejected {
		return nil
	}
	if request.Status == types.RequestAccepted {
		return ErrInvalidState
	}

	won, err := s.requestRepo.UpdateStatusIfPending(ctx, requestID, types.RequestRejected)
	if err != nil {
		return fmt.Errorf("failed to reject merge request: %w", err)
	}
	if !won {
		current, err := s.requestRepo.FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == types.RequestRejected {
			return nil
		}
		return ErrInvalidState
	}

	s.notifyRequestResolved(ctx, request, false)
	return nil
}

func (s *mergeService) ListMyHubs(ctx context.Context, actorUserID, channelID string) ([]models.HubResponse, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrNotFound
	}
	isMember, err := s.channelRepo.IsMember(ctx, channelID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrUnauthorized
	}

	membership, err := s.hubRepo.FindMembershipByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return []models.HubResponse{}, nil
	}

	hub, err := s.buildHubResponse(ctx, membership.HubID)
	if err != nil {
		return nil, err
	}
	return []models.HubResponse{*hub}, nil
}

func (s *mergeService) Unmerge(ctx context.Context, actorUserID, hubID, channelID string) error {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return ErrNotFound
	}
	// A member admin may only pull out their own channel.
	if channel.AdminUserID != actorUserID {
		return ErrUnauthorized
	}

	return s.removeMembership(ctx, hubID, channelID, false)
}

func (s *mergeService) ReapExpired(ctx context.Context) (int, error) {
	expired, err := s.hubRepo.FindExpiredMemberships(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range expired {
		if err := s.removeMembership(ctx, m.HubID, m.ChannelID, true); err != nil {
			log.Printf("[Merge] Failed to reap membership hub=%s channel=%s: %v", m.HubID, m.ChannelID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// removeMembership is shared by manual unmerge and the reaper. Idempotent: a
// membership already removed by the other caller is a no-op success.
func (s *mergeService) removeMembership(ctx context.Context, hubID, channelID string, expired bool) error {
	removed, hubDeleted, err := s.hubRepo.RemoveMember(ctx, hubID, channelID)
	if err != nil {
		return fmt.Errorf("failed to remove hub membership: %w", err)
	}
	if !removed {
		return nil
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastHubMemberLeft(hubID, map[string]interface{}{
			"hubId":     hubID,
			"channelId": channelID,
		}, expired)
		if hubDeleted {
			s.broadcaster.BroadcastHubDissolved(hubID, map[string]interface{}{
				"hubId": hubID,
			})
		}
	}

	if expired && s.notifSvc != nil {
		if channel, err := s.channelRepo.FindByID(ctx, channelID); err == nil && channel != nil {
			s.notifSvc.Notify(ctx, channel.AdminUserID, "hub_membership_expired",
				fmt.Sprintf("The temporary merge for %s has ended", channel.Name))
		}
	}

	return nil
}

func (s *mergeService) buildHubResponse(ctx context.Context, hubID string) (*models.HubResponse, error) {
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

	response := &models.HubResponse{
		ID:        hub.ID,
		Name:      hub.Name,
		ExpiresAt: hub.ExpiresAt,
		CreatedAt: hub.CreatedAt,
	}

	adminSet := make(map[string]bool)
	for _, m := range memberships {
		member := models.HubMembershipResponse{
			ChannelID: m.ChannelID,
			MergeType: m.MergeType,
			ExpiresAt: m.ExpiresAt,
			JoinedAt:  m.JoinedAt,
		}
		if channel, err := s.channelRepo.FindByID(ctx, m.ChannelID); err == nil && channel != nil {
			member.ChannelName = channel.Name
			adminSet[channel.AdminUserID] = true
		}
		response.Members = append(response.Members, member)
	}

	// Admins of a hub are the union of its member channels' admins.
	for adminID := range adminSet {
		response.AdminUserIDs = append(response.AdminUserIDs, adminID)
	}
	sort.Strings(response.AdminUserIDs)

	return response, nil
}

func (s *mergeService) notifyRequestReceived(ctx context.Context, request *repository.MergeRequest, sender, receiver *repository.Channel) {
	terms := "permanent"
	if request.MergeType == types.MergeTemporary {
		terms = fmt.Sprintf("temporary, %d days", request.DurationDays)
	}

	if s.notifSvc != nil {
		s.notifSvc.Notify(ctx, receiver.AdminUserID, "merge_request_received",
			fmt.Sprintf("%s wants to merge with %s (%s)", sender.Name, receiver.Name, terms))
	}
	if s.broadcaster != nil {
		s.broadcaster.SendMergeRequestReceived(receiver.AdminUserID, map[string]interface{}{
			"requestId":       request.ID,
			"senderChannelId": request.SenderChannelID,
			"mergeType":       request.MergeType,
			"durationDays":    request.DurationDays,
		})
	}
	if s.emailSvc != nil {
		go func() {
			admin, err := s.userRepo.FindByID(context.Background(), receiver.AdminUserID)
			if err != nil || admin == nil {
				return
			}
			_ = s.emailSvc.SendMergeRequestNotice(admin.Email, email.MergeRequestEmailData{
				SenderChannelName:   sender.Name,
				ReceiverChannelName: receiver.Name,
				MergeTerms:          terms,
			})
		}()
	}
}

func (s *mergeService) notifyRequestResolved(ctx context.Context, request *repository.MergeRequest, accepted bool) {
	sender, err := s.channelRepo.FindByID(ctx, request.SenderChannelID)
	if err != nil || sender == nil {
		return
	}

	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	if s.notifSvc != nil {
		s.notifSvc.Notify(ctx, sender.AdminUserID, "merge_request_"+outcome,
			fmt.Sprintf("Your merge request from %s was %s", sender.Name, outcome))
	}
	if s.broadcaster != nil {
		s.broadcaster.SendMergeRequestResolved(sender.AdminUserID, accepted, map[string]interface{}{
			"requestId": request.ID,
		})
	}
}
