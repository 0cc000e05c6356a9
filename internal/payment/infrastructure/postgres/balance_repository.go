package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// BalanceRepository implements domain.BalancesRepository using PostgreSQL.
//
// Writes combine two mechanisms: GetForUpdate takes a row lock so
// concurrent transactions serialize on the same account, and
// UpdateAvailable additionally guards on the version column so a stale
// read can never overwrite a newer balance.
type BalanceRepository struct {
	db Executor
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db Executor) *BalanceRepository {
	return &BalanceRepository{db: db}
}

const balanceColumns = `account_id, available_minor, pending_minor, currency, version, updated_at`

// Get retrieves a balance without locking. Returns (nil, nil) when missing.
func (r *BalanceRepository) Get(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	return r.scanOne(ctx, `
		SELECT `+balanceColumns+`
		FROM account_balances
		WHERE account_id = $1`,
		id.String(),
	)
}

// GetForUpdate retrieves a balance under a row-level lock.
// Callers must lock accounts in ascending id order to avoid deadlocks.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	return r.scanOne(ctx, `
		SELECT `+balanceColumns+`
		FROM account_balances
		WHERE account_id = $1
		FOR UPDATE`,
		id.String(),
	)
}

// UpdateAvailable applies the versioned balance update.
// Zero affected rows means another transaction won the version race.
func (r *BalanceRepository) UpdateAvailable(ctx context.Context, id types.AccountID, newAvailableMinor, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE account_balances
		SET available_minor = $1,
			version = version + 1,
			updated_at = $2
		WHERE account_id = $3 AND version = $4`,
		newAvailableMinor,
		time.Now().UTC(),
		id.String(),
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOptimisticLock
	}
	return nil
}

func (r *BalanceRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.AccountBalance, error) {
	var b domain.AccountBalance
	var accountID string

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&accountID, &b.AvailableMinor, &b.PendingMinor, &b.Currency, &b.Version, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.AccountID = types.AccountID(accountID)
	return &b, nil
}

// Verify interface implementation.
var _ domain.BalancesRepository = (*BalanceRepository)(nil)
