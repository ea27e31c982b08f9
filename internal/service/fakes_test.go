package service

import (
	"context"
	"sync"
	"time"

	"github.com/classlink/classlink-backend/internal/repository"
	"github.com/classlink/classlink-backend/internal/types"
	"github.com/google/uuid"
)

// In-memory repository fakes. Each one guards its maps with a mutex and
// mirrors the store's contract, including the conditional status flip on
// merge requests and the cascade delete on hub memberships, so the services
// can be tested concurrently without a database.

// ============================================
// Users
// ============================================

type fakeUserRepository struct {
	mu     sync.Mutex
	users  map[string]*repository.User
	tokens map[string]*repository.RefreshToken
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:  make(map[string]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func (r *fakeUserRepository) Create(ctx context.Context, user *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepository) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) CreateRefreshToken(ctx context.Context, rt *repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt.ID = uuid.New().String()
	rt.CreatedAt = time.Now()
	copied := *rt
	r.tokens[rt.Token] = &copied
	return nil
}

func (r *fakeUserRepository) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.tokens[token]; ok {
		copied := *rt
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

// ============================================
// Channels
// ============================================

type fakeChannelRepository struct {
	mu       sync.Mutex
	channels map[string]*repository.Channel
	members  map[string][]*repository.ChannelMember
	users    *fakeUserRepository
}

func newFakeChannelRepository(users *fakeUserRepository) *fakeChannelRepository {
	return &fakeChannelRepository{
		channels: make(map[string]*repository.Channel),
		members:  make(map[string][]*repository.ChannelMember),
		users:    users,
	}
}

func (r *fakeChannelRepository) Create(ctx context.Context, channel *repository.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	channel.ID = uuid.New().String()
	channel.CreatedAt = time.Now()
	channel.UpdatedAt = channel.CreatedAt
	copied := *channel
	r.channels[channel.ID] = &copied
	return nil
}

func (r *fakeChannelRepository) FindByID(ctx context.Context, id string) (*repository.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeChannelRepository) FindByJoinCode(ctx context.Context, joinCode string) (*repository.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if c.JoinCode == joinCode {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepository) UpdateSettings(ctx context.Context, id string, allowMerge bool, privacyMode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[id]; ok {
		c.AllowMerge = allowMerge
		c.PrivacyMode = privacyMode
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeChannelRepository) ListMergeable(ctx context.Context, excludeChannelID string) ([]*repository.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Channel
	for _, c := range r.channels {
		if c.ID == excludeChannelID || !c.AllowMerge {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeChannelRepository) ListByUser(ctx context.Context, userID string) ([]*repository.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []*repository.Channel
	for _, c := range r.channels {
		if c.AdminUserID == userID && !seen[c.ID] {
			seen[c.ID] = true
			copied := *c
			out = append(out, &copied)
		}
	}
	for channelID, members := range r.members {
		for _, m := range members {
			if m.UserID == userID && !seen[channelID] {
				seen[channelID] = true
				copied := *r.channels[channelID]
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (r *fakeChannelRepository) AddMember(ctx context.Context, channelID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[channelID] {
		if m.UserID == userID {
			return nil
		}
	}
	r.members[channelID] = append(r.members[channelID], &repository.ChannelMember{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	})
	return nil
}

func (r *fakeChannelRepository) ListMembers(ctx context.Context, channelID string) ([]*repository.ChannelMember, error) {
	r.mu.Lock()
	members := append([]*repository.ChannelMember(nil), r.members[channelID]...)
	r.mu.Unlock()

	out := make([]*repository.ChannelMember, 0, len(members))
	for _, m := range members {
		copied := *m
		copied.User, _ = r.users.FindByID(ctx, m.UserID)
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeChannelRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[channelID]; ok && c.AdminUserID == userID {
		return true, nil
	}
	for _, m := range r.members[channelID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ============================================
// Merge requests
// ============================================

type fakeMergeRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*repository.MergeRequest
}

func newFakeMergeRequestRepository() *fakeMergeRequestRepository {
	return &fakeMergeRequestRepository{requests: make(map[string]*repository.MergeRequest)}
}

func (r *fakeMergeRequestRepository) Create(ctx context.Context, request *repository.MergeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = uuid.New().String()
	request.CreatedAt = time.Now()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeMergeRequestRepository) FindByID(ctx context.Context, id string) (*repository.MergeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeMergeRequestRepository) FindPendingByReceiver(ctx context.Context, channelID string) ([]*repository.MergeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.MergeRequest
	for _, req := range r.requests {
		if req.ReceiverChannelID == channelID && req.Status == types.RequestPending {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMergeRequestRepository) ExistsPendingForPair(ctx context.Context, channelA, channelB string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Status != types.RequestPending {
			continue
		}
		if (req.SenderChannelID == channelA && req.ReceiverChannelID == channelB) ||
			(req.SenderChannelID == channelB && req.ReceiverChannelID == channelA) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMergeRequestRepository) UpdateStatusIfPending(ctx context.Context, id, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != types.RequestPending {
		return false, nil
	}
	req.Status = status
	return true, nil
}

// ============================================
// Hubs
// ============================================

type fakeHubRepository struct {
	mu          sync.Mutex
	hubs        map[string]*repository.Hub
	memberships map[string][]*repository.HubMembership
}

func newFakeHubRepository() *fakeHubRepository {
	return &fakeHubRepository{
		hubs:        make(map[string]*repository.Hub),
		memberships: make(map[string][]*repository.HubMembership),
	}
}

func (r *fakeHubRepository) CreateWithMembers(ctx context.Context, hub *repository.Hub, memberships []*repository.HubMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hub.ID = uuid.New().String()
	hub.AliasSeed = uuid.New().String()
	hub.CreatedAt = time.Now()
	copied := *hub
	r.hubs[hub.ID] = &copied
	for _, m := range memberships {
		m.ID = uuid.New().String()
		m.HubID = hub.ID
		m.JoinedAt = time.Now()
		mc := *m
		r.memberships[hub.ID] = append(r.memberships[hub.ID], &mc)
	}
	r.recomputeExpiry(hub.ID)
	hub.ExpiresAt = r.hubs[hub.ID].ExpiresAt
	return nil
}

func (r *fakeHubRepository) FindByID(ctx context.Context, id string) (*repository.Hub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hubs[id]; ok {
		copied := *h
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeHubRepository) FindMembershipByChannel(ctx context.Context, channelID string) (*repository.HubMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, members := range r.memberships {
		for _, m := range members {
			if m.ChannelID == channelID {
				copied := *m
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeHubRepository) ListMemberships(ctx context.Context, hubID string) ([]*repository.HubMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*repository.HubMembership, 0, len(r.memberships[hubID]))
	for _, m := range r.memberships[hubID] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeHubRepository) AddMember(ctx context.Context, membership *repository.HubMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	membership.ID = uuid.New().String()
	membership.JoinedAt = time.Now()
	copied := *membership
	r.memberships[membership.HubID] = append(r.memberships[membership.HubID], &copied)
	r.recomputeExpiry(membership.HubID)
	return nil
}

func (r *fakeHubRepository) RemoveMember(ctx context.Context, hubID, channelID string) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.memberships[hubID]
	idx := -1
	for i, m := range members {
		if m.ChannelID == channelID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, false, nil
	}

	r.memberships[hubID] = append(members[:idx], members[idx+1:]...)
	if len(r.memberships[hubID]) <= 1 {
		delete(r.memberships, hubID)
		delete(r.hubs, hubID)
		return true, true, nil
	}
	r.recomputeExpiry(hubID)
	return true, false, nil
}

func (r *fakeHubRepository) FindExpiredMemberships(ctx context.Context, now time.Time) ([]*repository.HubMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.HubMembership
	for _, members := range r.memberships {
		for _, m := range members {
			if m.ExpiresAt != nil && m.ExpiresAt.Before(now) {
				copied := *m
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

// caller holds r.mu
func (r *fakeHubRepository) recomputeExpiry(hubID string) {
	hub, ok := r.hubs[hubID]
	if !ok {
		return
	}
	var min *time.Time
	for _, m := range r.memberships[hubID] {
		if m.ExpiresAt == nil {
			continue
		}
		if min == nil || m.ExpiresAt.Before(*min) {
			t := *m.ExpiresAt
			min = &t
		}
	}
	hub.ExpiresAt = min
}

// ============================================
// Notifications
// ============================================

type fakeNotificationRepository struct {
	mu            sync.Mutex
	notifications []*repository.Notification
}

func newFakeNotificationRepository() *fakeNotificationRepository {
	return &fakeNotificationRepository{}
}

func (r *fakeNotificationRepository) Create(ctx context.Context, notification *repository.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()
	copied := *notification
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *fakeNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.notifications[i].UserID == userID {
			copied := *r.notifications[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepository) byKind(kind string) []*repository.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Notification
	for _, n := range r.notifications {
		if n.Kind == kind {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out
}

// ============================================
// Test environment
// ============================================

type testEnv struct {
	userRepo    *fakeUserRepository
	channelRepo *fakeChannelRepository
	requestRepo *fakeMergeRequestRepository
	hubRepo     *fakeHubRepository
	notifRepo   *fakeNotificationRepository

	channel    ChannelService
	merge      MergeService
	visibility VisibilityService
	notifs     NotificationService
}

func newTestEnv() *testEnv {
	userRepo := newFakeUserRepository()
	channelRepo := newFakeChannelRepository(userRepo)
	requestRepo := newFakeMergeRequestRepository()
	hubRepo := newFakeHubRepository()
	notifRepo := newFakeNotificationRepository()

	notifs := NewNotificationService(notifRepo, nil)

	return &testEnv{
		userRepo:    userRepo,
		channelRepo: channelRepo,
		requestRepo: requestRepo,
		hubRepo:     hubRepo,
		notifRepo:   notifRepo,
		channel:     NewChannelService(channelRepo, hubRepo),
		merge:       NewMergeService(channelRepo, requestRepo, hubRepo, userRepo, notifs, nil, nil),
		visibility:  NewVisibilityService(channelRepo, hubRepo, userRepo),
		notifs:      notifs,
	}
}

func (e *testEnv) createUser(name string) *repository.User {
	user := &repository.User{Name: name, Email: name + "@example.com", Password: "x"}
	e.userRepo.Create(context.Background(), user)
	return user
}

func (e *testEnv) createChannel(name, adminUserID string) *repository.Channel {
	channel := &repository.Channel{
		Name:        name,
		JoinCode:    name,
		AdminUserID: adminUserID,
		AllowMerge:  true,
		PrivacyMode: types.PrivacyPublic,
	}
	e.channelRepo.Create(context.Background(), channel)
	return channel
}

// sendAndAccept drives the full protocol: admin of sender sends, admin of
// receiver accepts into a hub with the given name.
func (e *testEnv) sendAndAccept(sender, receiver *repository.Channel, mergeType string, days int, hubName string) (*repository.MergeRequest, string, error) {
	ctx := context.Background()
	request, err := e.merge.SendRequest(ctx, sender.AdminUserID, sender.ID, receiver.ID, mergeType, days)
	if err != nil {
		return nil, "", err
	}
	hub, err := e.merge.Accept(ctx, receiver.AdminUserID, request.ID, hubName)
	if err != nil {
		return request, "", err
	}
	return request, hub.ID, nil
}
