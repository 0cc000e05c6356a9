package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// PaymentRepository implements domain.PaymentsRepository using PostgreSQL.
// Payment rows are append-only; declines are stored with their reason.
type PaymentRepository struct {
	db Executor
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db Executor) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Add inserts a payment row.
func (r *PaymentRepository) Add(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (
			id, idempotency_key, payer_account_id, payee_account_id,
			amount_minor, currency, status, description,
			error_code, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID.String(),
		p.IdempotencyKey,
		p.PayerAccountID.String(),
		p.PayeeAccountID.String(),
		p.Amount.AmountMinor,
		p.Amount.Currency,
		string(p.Status),
		nullable(p.Description),
		nullable(p.ErrorCode),
		nullable(p.ErrorMessage),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Get retrieves a payment by id. Returns (nil, nil) when missing.
func (r *PaymentRepository) Get(ctx context.Context, id types.PaymentID) (*domain.Payment, error) {
	var (
		p                            domain.Payment
		paymentID, payer, payee      string
		status                       string
		description, errCode, errMsg sql.NullString
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, idempotency_key, payer_account_id, payee_account_id,
			   amount_minor, currency, status, description,
			   error_code, error_message, created_at, updated_at
		FROM payments
		WHERE id = $1`,
		id.String(),
	).Scan(
		&paymentID, &p.IdempotencyKey, &payer, &payee,
		&p.Amount.AmountMinor, &p.Amount.Currency, &status, &description,
		&errCode, &errMsg, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.ID = types.PaymentID(paymentID)
	p.PayerAccountID = types.AccountID(payer)
	p.PayeeAccountID = types.AccountID(payee)
	p.Status = domain.PaymentStatus(status)
	p.Description = description.String
	p.ErrorCode = errCode.String
	p.ErrorMessage = errMsg.String
	return &p, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Verify interface implementation.
var _ domain.PaymentsRepository = (*PaymentRepository)(nil)
