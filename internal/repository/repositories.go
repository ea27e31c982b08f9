package repository

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	// Core repositories (pgxpool)
	UserRepo         UserRepository
	ChannelRepo      ChannelRepository
	MergeRequestRepo MergeRequestRepository
	HubRepo          HubRepository

	// Notification repository (sql.DB)
	NotificationRepo NotificationRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sql.DB) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		ChannelRepo:      NewChannelRepository(pool),
		MergeRequestRepo: NewMergeRequestRepository(pool),
		HubRepo:          NewHubRepository(pool),

		NotificationRepo: NewNotificationRepository(db),
	}
}
