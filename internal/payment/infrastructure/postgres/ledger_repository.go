package postgres

import (
	"context"

	"ledgerpay/internal/payment/domain"
)

// LedgerRepository implements domain.LedgerWriter using PostgreSQL.
// Entries are immutable once written; there is no update or delete.
type LedgerRepository struct {
	db Executor
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db Executor) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Add appends a ledger entry.
func (r *LedgerRepository) Add(ctx context.Context, e *domain.LedgerEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_entries (
			id, payment_id, account_id, entry_type,
			amount_minor, currency, balance_after_minor, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID.String(),
		e.PaymentID.String(),
		e.AccountID.String(),
		string(e.EntryType),
		e.Amount.AmountMinor,
		e.Amount.Currency,
		e.BalanceAfterMinor,
		e.CreatedAt,
	)
	return err
}

// Verify interface implementation.
var _ domain.LedgerWriter = (*LedgerRepository)(nil)
