package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// IdempotencyRepository implements domain.IdempotencyRepository using
// PostgreSQL.
//
// The claim is a single INSERT ... ON CONFLICT DO UPDATE guarded on the
// expiry column: a fresh key inserts, an expired record is reclaimed in
// place, and a live record leaves the statement with zero rows. The
// unique index on the key serializes concurrent claims, so exactly one
// of two racing transactions wins.
type IdempotencyRepository struct {
	db Executor
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(db Executor) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// ClaimPending atomically inserts a PENDING record for the key, or
// reclaims an expired one. Returns (false, existing) when a live record
// holds the key.
func (r *IdempotencyRepository) ClaimPending(ctx context.Context, key string, expiresAt time.Time) (bool, *domain.IdempotencyRecord, error) {
	now := time.Now().UTC()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, status, created_at, expires_at)
		VALUES ($1, 'PENDING', $2, $3)
		ON CONFLICT (idempotency_key) DO UPDATE
		SET status = 'PENDING',
			payment_id = NULL,
			response_snapshot = NULL,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= $2`,
		key, now, expiresAt,
	)
	if err != nil {
		return false, nil, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil, nil
	}

	existing, err := r.get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// The row vanished between the claim and the read.
		return false, nil, domain.ErrRequestInFlight
	}
	return false, existing, nil
}

// MarkCompleted transitions the record to COMPLETED.
func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(ctx, key, paymentID, snapshot, domain.IdempotencyCompleted)
}

// MarkFailed transitions the record to FAILED.
func (r *IdempotencyRepository) MarkFailed(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(ctx, key, paymentID, snapshot, domain.IdempotencyFailed)
}

func (r *IdempotencyRepository) finalize(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte, status domain.IdempotencyStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $1, payment_id = $2, response_snapshot = $3
		WHERE idempotency_key = $4 AND status = 'PENDING'`,
		string(status), paymentID.String(), snapshot, key,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %q not in PENDING state", domain.ErrCorruptData, key)
	}
	return nil
}

// DeleteExpired removes records whose retention window has passed.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *IdempotencyRepository) get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var (
		rec       domain.IdempotencyRecord
		paymentID *string
		snapshot  []byte
		status    string
	)

	err := r.db.QueryRow(ctx, `
		SELECT idempotency_key, payment_id, response_snapshot, status, created_at, expires_at
		FROM idempotency_keys
		WHERE idempotency_key = $1`,
		key,
	).Scan(&rec.Key, &paymentID, &snapshot, &status, &rec.CreatedAt, &rec.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if paymentID != nil {
		rec.PaymentID = types.PaymentID(*paymentID)
	}
	rec.ResponseSnapshot = snapshot
	rec.Status = domain.IdempotencyStatus(status)
	return &rec, nil
}

// Verify interface implementation.
var _ domain.IdempotencyRepository = (*IdempotencyRepository)(nil)
