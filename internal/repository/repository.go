// internal/repository/repository.go
package repository

import (
	"time"
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Channel struct {
	ID          string
	Name        string
	JoinCode    string
	AdminUserID string
	AllowMerge  bool
	PrivacyMode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ChannelMember struct {
	ID        string
	ChannelID string
	UserID    string
	JoinedAt  time.Time
	User      *User
}

type MergeRequest struct {
	ID                string
	SenderChannelID   string
	ReceiverChannelID string
	MergeType         string
	DurationDays      int
	Status            string
	CreatedAt         time.Time
}

type Hub struct {
	ID        string
	Name      string
	AliasSeed string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type HubMembership struct {
	ID        string
	HubID     string
	ChannelID string
	MergeType string
	ExpiresAt *time.Time
	JoinedAt  time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Kind      string
	Message   string
	Read      bool
	CreatedAt time.Time
}
