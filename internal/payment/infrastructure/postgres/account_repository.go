package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// AccountRepository implements domain.AccountsReader using PostgreSQL.
// Accounts are provisioned out-of-band; the engine only reads them.
type AccountRepository struct {
	db Executor
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Executor) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get retrieves an account by id. Returns (nil, nil) when missing.
func (r *AccountRepository) Get(ctx context.Context, id types.AccountID) (*domain.Account, error) {
	var a domain.Account
	var accountID, status string

	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, currency, status, created_at, updated_at
		FROM accounts
		WHERE id = $1`,
		id.String(),
	).Scan(&accountID, &a.OwnerID, &a.Currency, &status, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.ID = types.AccountID(accountID)
	a.Status = domain.AccountStatus(status)
	return &a, nil
}

// Verify interface implementation.
var _ domain.AccountsReader = (*AccountRepository)(nil)
