package socket

import (
	"fmt"
)

// Broadcaster provides high-level methods for broadcasting merge lifecycle
// events. Service code depends on this instead of the raw hub.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// SendNotification sends a stored notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendMergeRequestReceived tells the receiving channel's admin about a new request
func (b *Broadcaster) SendMergeRequestReceived(adminUserID string, request map[string]interface{}) {
	b.hub.SendToUser(adminUserID, MessageMergeRequestReceived, request)
}

// SendMergeRequestResolved tells the sending channel's admin the outcome
func (b *Broadcaster) SendMergeRequestResolved(adminUserID string, accepted bool, request map[string]interface{}) {
	msgType := MessageMergeRequestRejected
	if accepted {
		msgType = MessageMergeRequestAccepted
	}
	b.hub.SendToUser(adminUserID, msgType, request)
}

// BroadcastHubCreated announces a newly formed hub to its admins' room
func (b *Broadcaster) BroadcastHubCreated(hubID string, payload map[string]interface{}) {
	b.hub.SendToRoom(hubRoom(hubID), MessageHubCreated, payload, "")
}

// BroadcastHubMemberJoined announces a channel joining an existing hub
func (b *Broadcaster) BroadcastHubMemberJoined(hubID string, payload map[string]interface{}) {
	b.hub.SendToRoom(hubRoom(hubID), MessageHubMemberJoined, payload, "")
}

// BroadcastHubMemberLeft announces a channel leaving a hub
func (b *Broadcaster) BroadcastHubMemberLeft(hubID string, payload map[string]interface{}, expired bool) {
	msgType := MessageHubMemberLeft
	if expired {
		msgType = MessageHubMembershipExpired
	}
	b.hub.SendToRoom(hubRoom(hubID), msgType, payload, "")
}

// BroadcastHubDissolved announces the end of a hub
func (b *Broadcaster) BroadcastHubDissolved(hubID string, payload map[string]interface{}) {
	b.hub.SendToRoom(hubRoom(hubID), MessageHubDissolved, payload, "")
}

func hubRoom(hubID string) string {
	return fmt.Sprintf("hub:%s", hubID)
}
