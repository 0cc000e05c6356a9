package postgres

import (
	"context"
	"time"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// OutboxRepository implements domain.OutboxRepository using PostgreSQL.
//
// Events are written to the outbox within the same transaction as the
// payment, then published asynchronously by the delivery worker.
// ClaimUnpublished uses FOR UPDATE SKIP LOCKED so multiple workers can
// drain the table without double-delivery inside a single claim window.
type OutboxRepository struct {
	db Executor
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db Executor) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append stages an event in the current transaction.
func (r *OutboxRepository) Append(ctx context.Context, rec *domain.OutboxRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, created_at, retry_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID.String(),
		rec.AggregateType,
		rec.AggregateID,
		rec.EventType,
		rec.Payload,
		rec.CreatedAt,
		rec.RetryCount,
	)
	return err
}

// ClaimUnpublished retrieves up to limit unpublished records in
// creation order, locking the claimed rows for the duration of the
// transaction.
func (r *OutboxRepository) ClaimUnpublished(ctx context.Context, limit int) ([]*domain.OutboxRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type,
			   payload, created_at, published_at, retry_count
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*domain.OutboxRecord
	for rows.Next() {
		var rec domain.OutboxRecord
		var id string
		if err := rows.Scan(
			&id, &rec.AggregateType, &rec.AggregateID, &rec.EventType,
			&rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.RetryCount,
		); err != nil {
			return nil, err
		}
		rec.ID = types.EventID(id)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// MarkPublished finalizes records. A non-null published_at is never
// overwritten. No-op when the input list is empty.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	if len(ids) == 0 {
		return nil
	}

	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = id.String()
	}

	_, err := r.db.Exec(ctx, `
		UPDATE outbox
		SET published_at = $1
		WHERE id = ANY($2) AND published_at IS NULL`,
		time.Now().UTC(), stringIDs,
	)
	return err
}

// IncrementRetry bumps the retry counter after a failed send.
func (r *OutboxRepository) IncrementRetry(ctx context.Context, id types.EventID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1 WHERE id = $1`,
		id.String(),
	)
	return err
}

// ExhaustRetries forces the retry counter to the dead-letter threshold
// for permanently undeliverable records.
func (r *OutboxRepository) ExhaustRetries(ctx context.Context, id types.EventID, retryCount int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox SET retry_count = $1 WHERE id = $2`,
		retryCount, id.String(),
	)
	return err
}

// PendingCount returns the number of unpublished records.
func (r *OutboxRepository) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`,
	).Scan(&n)
	return n, err
}

// Verify interface implementation.
var _ domain.OutboxRepository = (*OutboxRepository)(nil)
