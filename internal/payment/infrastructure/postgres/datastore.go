package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerpay/internal/payment/domain"
)

// DataStore implements domain.AtomicExecutor and domain.Repositories
// on PostgreSQL.
type DataStore struct {
	pool            *pgxpool.Pool
	accountsRepo    *AccountRepository
	balancesRepo    *BalanceRepository
	paymentsRepo    *PaymentRepository
	ledgerRepo      *LedgerRepository
	idempotencyRepo *IdempotencyRepository
	outboxRepo      *OutboxRepository
}

// NewDataStore creates a new DataStore with the given connection pool.
func NewDataStore(pool *pgxpool.Pool) *DataStore {
	return &DataStore{
		pool:            pool,
		accountsRepo:    NewAccountRepository(pool),
		balancesRepo:    NewBalanceRepository(pool),
		paymentsRepo:    NewPaymentRepository(pool),
		ledgerRepo:      NewLedgerRepository(pool),
		idempotencyRepo: NewIdempotencyRepository(pool),
		outboxRepo:      NewOutboxRepository(pool),
	}
}

// Accounts returns the accounts reader.
func (ds *DataStore) Accounts() domain.AccountsReader {
	return ds.accountsRepo
}

// Balances returns the balances repository.
func (ds *DataStore) Balances() domain.BalancesRepository {
	return ds.balancesRepo
}

// Payments returns the payments repository.
func (ds *DataStore) Payments() domain.PaymentsRepository {
	return ds.paymentsRepo
}

// Ledger returns the ledger writer.
func (ds *DataStore) Ledger() domain.LedgerWriter {
	return ds.ledgerRepo
}

// Idempotency returns the idempotency repository.
func (ds *DataStore) Idempotency() domain.IdempotencyRepository {
	return ds.idempotencyRepo
}

// Outbox returns the outbox repository.
func (ds *DataStore) Outbox() domain.OutboxRepository {
	return ds.outboxRepo
}

// withTx creates a new DataStore with transactional repositories.
// This is the key to the Atomic pattern - we create new repository
// instances that share the same transaction.
func (ds *DataStore) withTx(tx pgx.Tx) *DataStore {
	return &DataStore{
		pool:            ds.pool,
		accountsRepo:    NewAccountRepository(tx),
		balancesRepo:    NewBalanceRepository(tx),
		paymentsRepo:    NewPaymentRepository(tx),
		ledgerRepo:      NewLedgerRepository(tx),
		idempotencyRepo: NewIdempotencyRepository(tx),
		outboxRepo:      NewOutboxRepository(tx),
	}
}

// Atomic executes the callback within a database transaction.
// If the callback returns nil, the transaction is committed.
// If the callback returns an error or panics, the transaction is rolled back.
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) (err error) {
	tx, err := ds.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("tx error: %v, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("commit transaction: %w", err)
			}
		}
	}()

	txDataStore := ds.withTx(tx)
	err = fn(txDataStore)
	return
}

// Verify interface implementations.
var (
	_ domain.AtomicExecutor = (*DataStore)(nil)
	_ domain.Repositories   = (*DataStore)(nil)
)
