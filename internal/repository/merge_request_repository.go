package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MergeRequestRepository interface {
	Create(ctx context.Context, request *MergeRequest) error
	FindByID(ctx context.Context, id string) (*MergeRequest, error)
	FindPendingByReceiver(ctx context.Context, channelID string) ([]*MergeRequest, error)
	ExistsPendingForPair(ctx context.Context, channelA, channelB string) (bool, error)
	// UpdateStatusIfPending flips the request out of PENDING only when it is
	// still PENDING, reporting whether this call was the one that did it.
	UpdateStatusIfPending(ctx context.Context, id, status string) (bool, error)
}

type pgMergeRequestRepository struct {
	pool *pgxpool.Pool
}

func NewMergeRequestRepository(pool *pgxpool.Pool) MergeRequestRepository {
	return &pgMergeRequestRepository{pool: pool}
}

func (r *pgMergeRequestRepository) Create(ctx context.Context, request *MergeRequest) error {
	query := `
		INSERT INTO merge_requests (sender_channel_id, receiver_channel_id, merge_type, duration_days, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		request.SenderChannelID, request.ReceiverChannelID,
		request.MergeType, request.DurationDays, request.Status,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *pgMergeRequestRepository) FindByID(ctx context.Context, id string) (*MergeRequest, error) {
	query := `
		SELECT id, sender_channel_id, receiver_channel_id, merge_type, duration_days, status, created_at
		FROM merge_requests WHERE id = $1
	`
	request := &MergeRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID, &request.SenderChannelID, &request.ReceiverChannelID,
		&request.MergeType, &request.DurationDays, &request.Status, &request.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *pgMergeRequestRepository) FindPendingByReceiver(ctx context.Context, channelID string) ([]*MergeRequest, error) {
	query := `
		SELECT id, sender_channel_id, receiver_channel_id, merge_type, duration_days, status, created_at
		FROM merge_requests WHERE receiver_channel_id = $1 AND status = 'PENDING'
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*MergeRequest
	for rows.Next() {
		request := &MergeRequest{}
		if err := rows.Scan(
			&request.ID, &request.SenderChannelID, &request.ReceiverChannelID,
			&request.MergeType, &request.DurationDays, &request.Status, &request.CreatedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func (r *pgMergeRequestRepository) ExistsPendingForPair(ctx context.Context, channelA, channelB string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM merge_requests
			WHERE status = 'PENDING'
			  AND LEAST(sender_channel_id, receiver_channel_id) = LEAST($1::uuid, $2::uuid)
			  AND GREATEST(sender_channel_id, receiver_channel_id) = GREATEST($1::uuid, $2::uuid)
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, channelA, channelB).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *pgMergeRequestRepository) UpdateStatusIfPending(ctx context.Context, id, status string) (bool, error) {
	query := `UPDATE merge_requests SET status = $2 WHERE id = $1 AND status = 'PENDING'`
	result, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
