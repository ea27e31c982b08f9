package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HubRepository interface {
	CreateWithMembers(ctx context.Context, hub *Hub, memberships []*HubMembership) error
	FindByID(ctx context.Context, id string) (*Hub, error)
	FindMembershipByChannel(ctx context.Context, channelID string) (*HubMembership, error)
	ListMemberships(ctx context.Context, hubID string) ([]*HubMembership, error)
	AddMember(ctx context.Context, membership *HubMembership) error
	// RemoveMember deletes the membership, cascading into hub deletion when
	// membership would drop to one or zero. A missing membership is not an
	// error: removed reports whether this call deleted anything.
	RemoveMember(ctx context.Context, hubID, channelID string) (removed bool, hubDeleted bool, err error)
	FindExpiredMemberships(ctx context.Context, now time.Time) ([]*HubMembership, error)
}

type pgHubRepository struct {
	pool *pgxpool.Pool
}

func NewHubRepository(pool *pgxpool.Pool) HubRepository {
	return &pgHubRepository{pool: pool}
}

func (r *pgHubRepository) CreateWithMembers(ctx context.Context, hub *Hub, memberships []*HubMembership) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO hubs (name) VALUES ($1) RETURNING id, alias_seed, created_at`,
		hub.Name,
	).Scan(&hub.ID, &hub.AliasSeed, &hub.CreatedAt)
	if err != nil {
		return err
	}

	for _, m := range memberships {
		m.HubID = hub.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO hub_memberships (hub_id, channel_id, merge_type, expires_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, joined_at`,
			m.HubID, m.ChannelID, m.MergeType, m.ExpiresAt,
		).Scan(&m.ID, &m.JoinedAt)
		if err != nil {
			return err
		}
	}

	if err := recomputeHubExpiry(ctx, tx, hub.ID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `SELECT expires_at FROM hubs WHERE id = $1`, hub.ID).
		Scan(&hub.ExpiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgHubRepository) FindByID(ctx context.Context, id string) (*Hub, error) {
	query := `SELECT id, name, alias_seed, expires_at, created_at FROM hubs WHERE id = $1`
	hub := &Hub{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&hub.ID, &hub.Name, &hub.AliasSeed, &hub.ExpiresAt, &hub.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return hub, nil
}

func (r *pgHubRepository) FindMembershipByChannel(ctx context.Context, channelID string) (*HubMembership, error) {
	query := `
		SELECT id, hub_id, channel_id, merge_type, expires_at, joined_at
		FROM hub_memberships WHERE channel_id = $1
	`
	m := &HubMembership{}
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&m.ID, &m.HubID, &m.ChannelID, &m.MergeType, &m.ExpiresAt, &m.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgHubRepository) ListMemberships(ctx context.Context, hubID string) ([]*HubMembership, error) {
	query := `
		SELECT id, hub_id, channel_id, merge_type, expires_at, joined_at
		FROM hub_memberships WHERE hub_id = $1
		ORDER BY joined_at
	`
	rows, err := r.pool.Query(ctx, query, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func (r *pgHubRepository) AddMember(ctx context.Context, membership *HubMembership) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO hub_memberships (hub_id, channel_id, merge_type, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, joined_at`,
		membership.HubID, membership.ChannelID, membership.MergeType, membership.ExpiresAt,
	).Scan(&membership.ID, &membership.JoinedAt)
	if err != nil {
		return err
	}

	if err := recomputeHubExpiry(ctx, tx, membership.HubID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgHubRepository) RemoveMember(ctx context.Context, hubID, channelID string) (bool, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, false, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM hub_memberships WHERE hub_id = $1 AND channel_id = $2`,
		hubID, channelID,
	)
	if err != nil {
		return false, false, err
	}
	if result.RowsAffected() == 0 {
		return false, false, tx.Commit(ctx)
	}

	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM hub_memberships WHERE hub_id = $1`, hubID,
	).Scan(&remaining); err != nil {
		return false, false, err
	}

	if remaining <= 1 {
		// Hub deletion commits together with the membership removal, so a
		// one-member hub is never observable.
		if _, err := tx.Exec(ctx, `DELETE FROM hubs WHERE id = $1`, hubID); err != nil {
			return false, false, err
		}
		return true, true, tx.Commit(ctx)
	}

	if err := recomputeHubExpiry(ctx, tx, hubID); err != nil {
		return false, false, err
	}
	return true, false, tx.Commit(ctx)
}

func (r *pgHubRepository) FindExpiredMemberships(ctx context.Context, now time.Time) ([]*HubMembership, error) {
	query := `
		SELECT id, hub_id, channel_id, merge_type, expires_at, joined_at
		FROM hub_memberships
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func scanMemberships(rows pgx.Rows) ([]*HubMembership, error) {
	var memberships []*HubMembership
	for rows.Next() {
		m := &HubMembership{}
		if err := rows.Scan(
			&m.ID, &m.HubID, &m.ChannelID, &m.MergeType, &m.ExpiresAt, &m.JoinedAt,
		); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// Hub expiry is the earliest remaining TEMPORARY membership expiry, or NULL
// when every member is PERMANENT.
func recomputeHubExpiry(ctx context.Context, tx pgx.Tx, hubID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE hubs SET expires_at = (
			SELECT MIN(expires_at) FROM hub_memberships
			WHERE hub_id = $1 AND expires_at IS NOT NULL
		)
		WHERE id = $1
	`, hubID)
	return err
}
