package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *Channel) error
	FindByID(ctx context.Context, id string) (*Channel, error)
	FindByJoinCode(ctx context.Context, joinCode string) (*Channel, error)
	UpdateSettings(ctx context.Context, id string, allowMerge bool, privacyMode string) error
	ListMergeable(ctx context.Context, excludeChannelID string) ([]*Channel, error)
	ListByUser(ctx context.Context, userID string) ([]*Channel, error)
	AddMember(ctx context.Context, channelID, userID string) error
	ListMembers(ctx context.Context, channelID string) ([]*ChannelMember, error)
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}

type pgChannelRepository struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &pgChannelRepository{pool: pool}
}

func (r *pgChannelRepository) Create(ctx context.Context, channel *Channel) error {
	query := `
		INSERT INTO channels (name, join_code, admin_user_id, allow_merge, privacy_mode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		channel.Name, channel.JoinCode, channel.AdminUserID,
		channel.AllowMerge, channel.PrivacyMode,
	).Scan(&channel.ID, &channel.CreatedAt, &channel.UpdatedAt)
}

func (r *pgChannelRepository) FindByID(ctx context.Context, id string) (*Channel, error) {
	query := `
		SELECT id, name, join_code, admin_user_id, allow_merge, privacy_mode, created_at, updated_at
		FROM channels WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *pgChannelRepository) FindByJoinCode(ctx context.Context, joinCode string) (*Channel, error) {
	query := `
		SELECT id, name, join_code, admin_user_id, allow_merge, privacy_mode, created_at, updated_at
		FROM channels WHERE join_code = $1
	`
	return r.scanOne(ctx, query, joinCode)
}

func (r *pgChannelRepository) scanOne(ctx context.Context, query string, arg any) (*Channel, error) {
	channel := &Channel{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&channel.ID, &channel.Name, &channel.JoinCode, &channel.AdminUserID,
		&channel.AllowMerge, &channel.PrivacyMode, &channel.CreatedAt, &channel.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return channel, nil
}

func (r *pgChannelRepository) UpdateSettings(ctx context.Context, id string, allowMerge bool, privacyMode string) error {
	query := `
		UPDATE channels SET allow_merge = $2, privacy_mode = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, allowMerge, privacyMode)
	return err
}

func (r *pgChannelRepository) ListMergeable(ctx context.Context, excludeChannelID string) ([]*Channel, error) {
	query := `
		SELECT id, name, join_code, admin_user_id, allow_merge, privacy_mode, created_at, updated_at
		FROM channels WHERE allow_merge = TRUE AND id != $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, excludeChannelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannels(rows)
}

func (r *pgChannelRepository) ListByUser(ctx context.Context, userID string) ([]*Channel, error) {
	query := `
		SELECT DISTINCT c.id, c.name, c.join_code, c.admin_user_id, c.allow_merge, c.privacy_mode, c.created_at, c.updated_at
		FROM channels c
		LEFT JOIN channel_members cm ON cm.channel_id = c.id
		WHERE c.admin_user_id = $1 OR cm.user_id = $1
		ORDER BY c.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannels(rows)
}

func scanChannels(rows pgx.Rows) ([]*Channel, error) {
	var channels []*Channel
	for rows.Next() {
		channel := &Channel{}
		if err := rows.Scan(
			&channel.ID, &channel.Name, &channel.JoinCode, &channel.AdminUserID,
			&channel.AllowMerge, &channel.PrivacyMode, &channel.CreatedAt, &channel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func (r *pgChannelRepository) AddMember(ctx context.Context, channelID, userID string) error {
	query := `
		INSERT INTO channel_members (channel_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, channelID, userID)
	return err
}

func (r *pgChannelRepository) ListMembers(ctx context.Context, channelID string) ([]*ChannelMember, error) {
	query := `
		SELECT cm.id, cm.channel_id, cm.user_id, cm.joined_at,
		       u.id, u.email, u.name, u.created_at, u.updated_at
		FROM channel_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.channel_id = $1
		ORDER BY cm.joined_at
	`
	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*ChannelMember
	for rows.Next() {
		member := &ChannelMember{User: &User{}}
		if err := rows.Scan(
			&member.ID, &member.ChannelID, &member.UserID, &member.JoinedAt,
			&member.User.ID, &member.User.Email, &member.User.Name,
			&member.User.CreatedAt, &member.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *pgChannelRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM channel_members WHERE channel_id = $1 AND user_id = $2
			UNION
			SELECT 1 FROM channels WHERE id = $1 AND admin_user_id = $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, channelID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
