// Package models holds the JSON response shapes returned by the API layer.
package models

import "time"

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type ChannelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	JoinCode    string    `json:"joinCode"`
	AdminUserID string    `json:"adminUserId"`
	AllowMerge  bool      `json:"allowMerge"`
	PrivacyMode string    `json:"privacyMode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ChannelSummary is the discovery-list entry: just enough to pick a merge
// partner.
type ChannelSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SettingsResponse struct {
	AllowMerge  bool   `json:"allowMerge"`
	PrivacyMode string `json:"privacyMode"`
}

type MergeRequestResponse struct {
	ID                string    `json:"id"`
	SenderChannelID   string    `json:"senderChannelId"`
	SenderChannelName string    `json:"senderChannelName,omitempty"`
	ReceiverChannelID string    `json:"receiverChannelId"`
	MergeType         string    `json:"mergeType"`
	DurationDays      int       `json:"durationDays"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

type HubMembershipResponse struct {
	ChannelID   string     `json:"channelId"`
	ChannelName string     `json:"channelName"`
	MergeType   string     `json:"mergeType"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	JoinedAt    time.Time  `json:"joinedAt"`
}

type HubResponse struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	ExpiresAt    *time.Time              `json:"expiresAt,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	Members      []HubMembershipResponse `json:"members"`
	AdminUserIDs []string                `json:"adminUserIds"`
}

// RosterEntry is one user as seen inside a hub. For ANONYMOUS channels the
// user id is withheld and the display name is a per-hub alias.
type RosterEntry struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName"`
	Anonymous   bool   `json:"anonymous"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
