package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/classlink/classlink-backend/internal/types"
)

func TestSendRequestValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	tests := []struct {
		name      string
		actor     string
		sender    string
		receiver  string
		mergeType string
		days      int
		wantErr   error
	}{
		{"unknown merge type", alice.ID, chanA.ID, chanB.ID, "FOREVER", 0, ErrInvalidInput},
		{"temporary without duration", alice.ID, chanA.ID, chanB.ID, types.MergeTemporary, 0, ErrInvalidInput},
		{"temporary with negative duration", alice.ID, chanA.ID, chanB.ID, types.MergeTemporary, -3, ErrInvalidInput},
		{"self merge", alice.ID, chanA.ID, chanA.ID, types.MergePermanent, 0, ErrInvalidInput},
		{"unknown sender", alice.ID, "missing", chanB.ID, types.MergePermanent, 0, ErrNotFound},
		{"unknown receiver", alice.ID, chanA.ID, "missing", types.MergePermanent, 0, ErrNotFound},
		{"actor is not sender admin", bob.ID, chanA.ID, chanB.ID, types.MergePermanent, 0, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.merge.SendRequest(ctx, tt.actor, tt.sender, tt.receiver, tt.mergeType, tt.days)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SendRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendRequestPermanentZeroesDuration(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 30)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if request.DurationDays != 0 {
		t.Errorf("DurationDays = %d, want 0 for a permanent merge", request.DurationDays)
	}
	if request.Status != types.RequestPending {
		t.Errorf("Status = %q, want %q", request.Status, types.RequestPending)
	}
}

func TestSendRequestDuplicatePending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	if _, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	// A second request for the same pair is rejected in both directions.
	if _, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate SendRequest() error = %v, want %v", err, ErrConflict)
	}
	if _, err := env.merge.SendRequest(ctx, bob.ID, chanB.ID, chanA.ID, types.MergePermanent, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("reversed SendRequest() error = %v, want %v", err, ErrConflict)
	}
}

func TestSendRequestNotifiesReceiverAdmin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	if _, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergeTemporary, 7); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	received := env.notifRepo.byKind("merge_request_received")
	if len(received) != 1 {
		t.Fatalf("got %d merge_request_received notifications, want 1", len(received))
	}
	if received[0].UserID != bob.ID {
		t.Errorf("notification went to %s, want receiver admin %s", received[0].UserID, bob.ID)
	}
}

func TestAcceptCreatesTemporaryHub(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergeTemporary, 7)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	before := time.Now()
	hub, err := env.merge.Accept(ctx, bob.ID, request.ID, "H1")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if hub.Name != "H1" {
		t.Errorf("hub name = %q, want %q", hub.Name, "H1")
	}
	if len(hub.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(hub.Members))
	}
	if hub.ExpiresAt == nil {
		t.Fatal("hub ExpiresAt is nil, want ~7 days out")
	}
	want := before.Add(7 * 24 * time.Hour)
	if diff := hub.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("hub ExpiresAt = %v, want within a minute of %v", hub.ExpiresAt, want)
	}
	if len(hub.AdminUserIDs) != 2 {
		t.Errorf("got %d hub admins, want 2", len(hub.AdminUserIDs))
	}

	updated, _ := env.requestRepo.FindByID(ctx, request.ID)
	if updated.Status != types.RequestAccepted {
		t.Errorf("request status = %q, want %q", updated.Status, types.RequestAccepted)
	}
}

func TestAcceptPermanentHubHasNoExpiry(t *testing.T) {
	env := newTestEnv()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "Forever")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	hub, _ := env.hubRepo.FindByID(context.Background(), hubID)
	if hub.ExpiresAt != nil {
		t.Errorf("permanent hub ExpiresAt = %v, want nil", hub.ExpiresAt)
	}
}

func TestAcceptValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	if _, err := env.merge.Accept(ctx, bob.ID, request.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Accept() with blank hub name error = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := env.merge.Accept(ctx, bob.ID, "missing", "H1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Accept() unknown request error = %v, want %v", err, ErrNotFound)
	}
	// Only the receiver's admin may accept; the sender's admin cannot.
	if _, err := env.merge.Accept(ctx, alice.ID, request.ID, "H1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Accept() by sender admin error = %v, want %v", err, ErrUnauthorized)
	}

	current, _ := env.requestRepo.FindByID(ctx, request.ID)
	if current.Status != types.RequestPending {
		t.Errorf("request status = %q after failed accepts, want %q", current.Status, types.RequestPending)
	}
}

func TestAcceptMultiMergeKeepsHubNameAndRecomputesExpiry(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	cara := env.createUser("cara")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)
	chanC := env.createChannel("C", cara.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergeTemporary, 14, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	// C joins the existing hub with a shorter expiry. The proposed name is
	// ignored and the hub expiry tightens to the new minimum.
	request, err := env.merge.SendRequest(ctx, cara.ID, chanC.ID, chanA.ID, types.MergeTemporary, 3)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	hub, err := env.merge.Accept(ctx, alice.ID, request.ID, "ShouldBeIgnored")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if hub.ID != hubID {
		t.Errorf("accept created hub %s, want join into existing hub %s", hub.ID, hubID)
	}
	if hub.Name != "H1" {
		t.Errorf("hub name = %q, want original %q", hub.Name, "H1")
	}
	if len(hub.Members) != 3 {
		t.Errorf("got %d members, want 3", len(hub.Members))
	}
	if hub.ExpiresAt == nil {
		t.Fatal("hub ExpiresAt is nil, want the 3-day minimum")
	}
	want := time.Now().Add(3 * 24 * time.Hour)
	if diff := hub.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("hub ExpiresAt = %v, want within a minute of %v", hub.ExpiresAt, want)
	}
}

func TestAcceptAcrossTwoHubsFailsAndChangesNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	cara := env.createUser("cara")
	dave := env.createUser("dave")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)
	chanC := env.createChannel("C", cara.ID)
	chanD := env.createChannel("D", dave.ID)

	_, hub1, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}
	_, hub2, err := env.sendAndAccept(chanC, chanD, types.MergePermanent, 0, "H2")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanC.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if _, err := env.merge.Accept(ctx, cara.ID, request.ID, "Union"); !errors.Is(err, ErrConflict) {
		t.Fatalf("Accept() across hubs error = %v, want %v", err, ErrConflict)
	}

	// The request stays pending and both hubs keep their membership.
	current, _ := env.requestRepo.FindByID(ctx, request.ID)
	if current.Status != types.RequestPending {
		t.Errorf("request status = %q, want %q", current.Status, types.RequestPending)
	}
	for _, hubID := range []string{hub1, hub2} {
		members, _ := env.hubRepo.ListMemberships(ctx, hubID)
		if len(members) != 2 {
			t.Errorf("hub %s has %d members after failed accept, want 2", hubID, len(members))
		}
	}
}

func TestConcurrentAcceptResolvesExactlyOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.merge.Accept(ctx, bob.ID, request.ID, "H1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidState):
		default:
			t.Errorf("attempt %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("got %d successful accepts, want exactly 1", wins)
	}

	members, _ := env.hubRepo.FindMembershipByChannel(ctx, chanA.ID)
	if members == nil {
		t.Error("winning accept did not create a hub membership")
	}
}

func TestRejectIsIdempotentOnRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	if err := env.merge.Reject(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if err := env.merge.Reject(ctx, bob.ID, request.ID); err != nil {
		t.Errorf("repeated Reject() error = %v, want nil", err)
	}

	// Accepting a rejected request is a real state error.
	if _, err := env.merge.Accept(ctx, bob.ID, request.ID, "H1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Accept() after reject error = %v, want %v", err, ErrInvalidState)
	}
}

func TestRejectAfterAcceptFails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, _, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	if err := env.merge.Reject(ctx, bob.ID, request.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Reject() after accept error = %v, want %v", err, ErrInvalidState)
	}
}

func TestRejectAuthorization(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	request, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanB.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	if err := env.merge.Reject(ctx, alice.ID, request.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Reject() by sender admin error = %v, want %v", err, ErrUnauthorized)
	}
	if err := env.merge.Reject(ctx, bob.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reject() unknown request error = %v, want %v", err, ErrNotFound)
	}
}

func TestListPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	cara := env.createUser("cara")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)
	chanC := env.createChannel("C", cara.ID)

	if _, err := env.merge.SendRequest(ctx, alice.ID, chanA.ID, chanC.ID, types.MergePermanent, 0); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if _, err := env.merge.SendRequest(ctx, bob.ID, chanB.ID, chanC.ID, types.MergeTemporary, 5); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	pending, err := env.merge.ListPending(ctx, cara.ID, chanC.ID)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending requests, want 2", len(pending))
	}
	for _, p := range pending {
		if p.SenderChannelName == "" {
			t.Errorf("request %s missing sender channel name", p.ID)
		}
	}

	if _, err := env.merge.ListPending(ctx, alice.ID, chanC.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListPending() by non-admin error = %v, want %v", err, ErrUnauthorized)
	}
}

func TestListMyHubs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	outsider := env.createUser("outsider")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	hubs, err := env.merge.ListMyHubs(ctx, alice.ID, chanA.ID)
	if err != nil {
		t.Fatalf("ListMyHubs() error = %v", err)
	}
	if len(hubs) != 0 {
		t.Errorf("got %d hubs before any merge, want 0", len(hubs))
	}

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	hubs, err = env.merge.ListMyHubs(ctx, alice.ID, chanA.ID)
	if err != nil {
		t.Fatalf("ListMyHubs() error = %v", err)
	}
	if len(hubs) != 1 || hubs[0].ID != hubID {
		t.Errorf("ListMyHubs() = %v, want the single hub %s", hubs, hubID)
	}

	if _, err := env.merge.ListMyHubs(ctx, outsider.ID, chanA.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListMyHubs() by non-member error = %v, want %v", err, ErrUnauthorized)
	}
}

func TestUnmergeIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	cara := env.createUser("cara")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)
	chanC := env.createChannel("C", cara.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}
	request, err := env.merge.SendRequest(ctx, cara.ID, chanC.ID, chanA.ID, types.MergePermanent, 0)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if _, err := env.merge.Accept(ctx, alice.ID, request.ID, "x"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if err := env.merge.Unmerge(ctx, cara.ID, hubID, chanC.ID); err != nil {
		t.Fatalf("Unmerge() error = %v", err)
	}
	// Second call finds nothing to remove and still succeeds.
	if err := env.merge.Unmerge(ctx, cara.ID, hubID, chanC.ID); err != nil {
		t.Errorf("repeated Unmerge() error = %v, want nil", err)
	}

	members, _ := env.hubRepo.ListMemberships(ctx, hubID)
	if len(members) != 2 {
		t.Errorf("hub has %d members after unmerge, want 2", len(members))
	}
}

func TestUnmergeDissolvesTwoMemberHub(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	if err := env.merge.Unmerge(ctx, alice.ID, hubID, chanA.ID); err != nil {
		t.Fatalf("Unmerge() error = %v", err)
	}

	// A hub never survives with a single member.
	hub, _ := env.hubRepo.FindByID(ctx, hubID)
	if hub != nil {
		t.Errorf("hub %s still exists after dropping to one member", hubID)
	}
	if m, _ := env.hubRepo.FindMembershipByChannel(ctx, chanB.ID); m != nil {
		t.Errorf("channel B still has a membership after hub dissolution")
	}
}

func TestUnmergeAuthorization(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	// Bob cannot pull Alice's channel out of the hub.
	if err := env.merge.Unmerge(ctx, bob.ID, hubID, chanA.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Unmerge() by other admin error = %v, want %v", err, ErrUnauthorized)
	}
	if err := env.merge.Unmerge(ctx, alice.ID, hubID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unmerge() unknown channel error = %v, want %v", err, ErrNotFound)
	}
}

func TestReapExpiredRemovesElapsedMemberships(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	cara := env.createUser("cara")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)
	chanC := env.createChannel("C", cara.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergePermanent, 0, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}
	request, err := env.merge.SendRequest(ctx, cara.ID, chanC.ID, chanA.ID, types.MergeTemporary, 1)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if _, err := env.merge.Accept(ctx, alice.ID, request.ID, "x"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	// Backdate C's expiry so the sweep sees it as elapsed.
	env.hubRepo.mu.Lock()
	for _, m := range env.hubRepo.memberships[hubID] {
		if m.ChannelID == chanC.ID {
			past := time.Now().Add(-time.Hour)
			m.ExpiresAt = &past
		}
	}
	env.hubRepo.mu.Unlock()

	removed, err := env.merge.ReapExpired(ctx)
	if err != nil {
		t.Fatalf("ReapExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("ReapExpired() removed %d, want 1", removed)
	}

	if m, _ := env.hubRepo.FindMembershipByChannel(ctx, chanC.ID); m != nil {
		t.Error("expired membership still present after sweep")
	}
	members, _ := env.hubRepo.ListMemberships(ctx, hubID)
	if len(members) != 2 {
		t.Errorf("hub has %d members after sweep, want 2", len(members))
	}

	// The reaped channel's admin is told the temporary merge ended.
	expired := env.notifRepo.byKind("hub_membership_expired")
	if len(expired) != 1 || expired[0].UserID != cara.ID {
		t.Errorf("expiry notifications = %+v, want exactly one for %s", expired, cara.ID)
	}
}

func TestReapExpiredDissolvesHubAtOneMember(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.createUser("alice")
	bob := env.createUser("bob")
	chanA := env.createChannel("A", alice.ID)
	chanB := env.createChannel("B", bob.ID)

	_, hubID, err := env.sendAndAccept(chanA, chanB, types.MergeTemporary, 1, "H1")
	if err != nil {
		t.Fatalf("sendAndAccept() error = %v", err)
	}

	env.hubRepo.mu.Lock()
	for _, m := range env.hubRepo.memberships[hubID] {
		past := time.Now().Add(-time.Hour)
		m.ExpiresAt = &past
	}
	env.hubRepo.mu.Unlock()

	if _, err := env.merge.ReapExpired(ctx); err != nil {
		t.Fatalf("ReapExpired() error = %v", err)
	}

	if hub, _ := env.hubRepo.FindByID(ctx, hubID); hub != nil {
		t.Errorf("hub %s still exists after all memberships expired", hubID)
	}
}

func TestReapExpiredNothingToDo(t *testing.T) {
	env := newTestEnv()

	removed, err := env.merge.ReapExpired(context.Background())
	if err != nil {
		t.Fatalf("ReapExpired() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("ReapExpired() removed %d on empty store, want 0", removed)
	}
}
