package domain

import (
	"context"
	"time"

	"ledgerpay/internal/common/types"
)

// AccountsReader reads accounts. Accounts are managed out-of-band and
// read-only to the core.
type AccountsReader interface {
	// Get returns the account, or (nil, nil) when it does not exist.
	Get(ctx context.Context, id types.AccountID) (*Account, error)
}

// BalancesRepository reads and conditionally updates account balances.
type BalancesRepository interface {
	// Get returns the balance without locking, or (nil, nil) when missing.
	Get(ctx context.Context, id types.AccountID) (*AccountBalance, error)

	// GetForUpdate returns the balance under a row-level lock.
	// Callers must acquire locks in canonical order (lowest account id
	// first) to prevent deadlocks.
	GetForUpdate(ctx context.Context, id types.AccountID) (*AccountBalance, error)

	// UpdateAvailable performs the optimistic-version update
	// SET available = new, version = version + 1 WHERE version = expected.
	// Returns ErrOptimisticLock when zero rows are affected.
	UpdateAvailable(ctx context.Context, id types.AccountID, newAvailableMinor, expectedVersion int64) error
}

// PaymentsRepository persists and reads payments.
type PaymentsRepository interface {
	Add(ctx context.Context, p *Payment) error
	// Get returns the payment, or (nil, nil) when it does not exist.
	Get(ctx context.Context, id types.PaymentID) (*Payment, error)
}

// LedgerWriter appends immutable ledger entries.
type LedgerWriter interface {
	Add(ctx context.Context, e *LedgerEntry) error
}

// IdempotencyRepository manages idempotency records.
type IdempotencyRepository interface {
	// ClaimPending atomically inserts a PENDING record for the key, or
	// reclaims an expired one in place. Returns (true, nil) when the
	// claim succeeded, or (false, existing) when a live record holds
	// the key.
	ClaimPending(ctx context.Context, key string, expiresAt time.Time) (bool, *IdempotencyRecord, error)

	// MarkCompleted transitions the record to COMPLETED with the
	// response snapshot and payment id attached.
	MarkCompleted(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error

	// MarkFailed transitions the record to FAILED with the decline
	// snapshot attached.
	MarkFailed(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error

	// DeleteExpired removes records whose retention window has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OutboxRepository stages and drains outbox records.
type OutboxRepository interface {
	// Append stages an event in the current transaction.
	Append(ctx context.Context, rec *OutboxRecord) error

	// ClaimUnpublished returns up to limit pending records ordered by
	// creation time, locking the rows and skipping rows already locked
	// by concurrent workers.
	ClaimUnpublished(ctx context.Context, limit int) ([]*OutboxRecord, error)

	// MarkPublished finalizes records. A non-null published_at is never
	// overwritten.
	MarkPublished(ctx context.Context, ids []types.EventID) error

	// IncrementRetry bumps the retry counter after a failed send.
	IncrementRetry(ctx context.Context, id types.EventID) error

	// ExhaustRetries forces the retry counter to the DLQ threshold for
	// permanently undeliverable records.
	ExhaustRetries(ctx context.Context, id types.EventID, retryCount int) error

	// PendingCount returns the number of unpublished records.
	PendingCount(ctx context.Context) (int64, error)
}

// Repositories is the capability set available inside a transaction.
type Repositories interface {
	Accounts() AccountsReader
	Balances() BalancesRepository
	Payments() PaymentsRepository
	Ledger() LedgerWriter
	Idempotency() IdempotencyRepository
	Outbox() OutboxRepository
}

// AtomicCallback runs against transactional repositories.
type AtomicCallback func(repos Repositories) error

// AtomicExecutor executes a callback within a single transaction.
// A nil return commits; an error or panic rolls back.
type AtomicExecutor interface {
	Atomic(ctx context.Context, fn AtomicCallback) error
}

// Broker delivers serialized event envelopes. Messages with the same
// key land on the same partition, giving per-aggregate ordering.
type Broker interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}
