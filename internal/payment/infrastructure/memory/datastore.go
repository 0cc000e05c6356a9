package memory

import (
	"context"
	"sync"
	"time"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// DataStore implements domain.AtomicExecutor and domain.Repositories for testing.
// It provides an in-memory implementation that supports the Atomic pattern.
// Concurrency: all access is guarded by a mutex, so callbacks are serialized.
type DataStore struct {
	mu          sync.RWMutex
	accounts    map[types.AccountID]*domain.Account
	balances    map[types.AccountID]*domain.AccountBalance
	payments    map[types.PaymentID]*domain.Payment
	ledger      []*domain.LedgerEntry
	idempotency map[string]*domain.IdempotencyRecord
	outbox      []*domain.OutboxRecord

	accountsRepo    *AccountsRepository
	balancesRepo    *BalancesRepository
	paymentsRepo    *PaymentsRepository
	ledgerRepo      *LedgerRepository
	idempotencyRepo *IdempotencyRepository
	outboxRepo      *OutboxRepository
}

// NewDataStore creates a new in-memory DataStore.
func NewDataStore() *DataStore {
	ds := &DataStore{
		accounts:    make(map[types.AccountID]*domain.Account),
		balances:    make(map[types.AccountID]*domain.AccountBalance),
		payments:    make(map[types.PaymentID]*domain.Payment),
		ledger:      make([]*domain.LedgerEntry, 0),
		idempotency: make(map[string]*domain.IdempotencyRecord),
		outbox:      make([]*domain.OutboxRecord, 0),
	}

	ds.accountsRepo = &AccountsRepository{store: ds}
	ds.balancesRepo = &BalancesRepository{store: ds}
	ds.paymentsRepo = &PaymentsRepository{store: ds}
	ds.ledgerRepo = &LedgerRepository{store: ds}
	ds.idempotencyRepo = &IdempotencyRepository{store: ds}
	ds.outboxRepo = &OutboxRepository{store: ds}

	return ds
}

// SeedAccount stores an account directly, bypassing any transaction.
func (ds *DataStore) SeedAccount(a *domain.Account) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.accounts[a.ID] = a
}

// SeedBalance stores an account balance directly, bypassing any transaction.
func (ds *DataStore) SeedBalance(b *domain.AccountBalance) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.balances[b.AccountID] = b
}

// LedgerEntries returns all recorded ledger entries in insertion order.
func (ds *DataStore) LedgerEntries() []*domain.LedgerEntry {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(ds.ledger))
	copy(out, ds.ledger)
	return out
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

// Atomic executes the callback atomically.
// It locks the store, runs the callback against a transactional snapshot,
// and commits staged changes only if the callback succeeds.
// Concurrency: the store is locked for the duration of the callback.
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	tx := &transactionalDataStore{
		parent:            ds,
		stagedBalances:    make(map[types.AccountID]*domain.AccountBalance),
		stagedPayments:    make(map[types.PaymentID]*domain.Payment),
		stagedIdempotency: make(map[string]*domain.IdempotencyRecord),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.stagedBalances {
		ds.balances[k] = v
	}
	for k, v := range tx.stagedPayments {
		ds.payments[k] = v
	}
	for k, v := range tx.stagedIdempotency {
		ds.idempotency[k] = v
	}
	ds.ledger = append(ds.ledger, tx.stagedLedger...)
	ds.outbox = append(ds.outbox, tx.stagedOutbox...)

	return nil
}

// transactionalDataStore provides transaction isolation for memory operations.
type transactionalDataStore struct {
	parent            *DataStore
	stagedBalances    map[types.AccountID]*domain.AccountBalance
	stagedPayments    map[types.PaymentID]*domain.Payment
	stagedIdempotency map[string]*domain.IdempotencyRecord
	stagedLedger      []*domain.LedgerEntry
	stagedOutbox      []*domain.OutboxRecord
}

func (tx *transactionalDataStore) Accounts() domain.AccountsReader {
	return &txAccountsRepository{tx: tx}
}

func (tx *transactionalDataStore) Balances() domain.BalancesRepository {
	return &txBalancesRepository{tx: tx}
}

func (tx *transactionalDataStore) Payments() domain.PaymentsRepository {
	return &txPaymentsRepository{tx: tx}
}

func (tx *transactionalDataStore) Ledger() domain.LedgerWriter {
	return &txLedgerRepository{tx: tx}
}

func (tx *transactionalDataStore) Idempotency() domain.IdempotencyRepository {
	return &txIdempotencyRepository{tx: tx}
}

func (tx *transactionalDataStore) Outbox() domain.OutboxRepository {
	return &txOutboxRepository{tx: tx}
}

// Transactional repository implementations

type txAccountsRepository struct {
	tx *transactionalDataStore
}

func (r *txAccountsRepository) Get(ctx context.Context, id types.AccountID) (*domain.Account, error) {
	if a, ok := r.tx.parent.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

type txBalancesRepository struct {
	tx *transactionalDataStore
}

func (r *txBalancesRepository) Get(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	// Check staged first
	if b, ok := r.tx.stagedBalances[id]; ok {
		cp := *b
		return &cp, nil
	}
	// Then check parent
	if b, ok := r.tx.parent.balances[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

// GetForUpdate behaves like Get; the store-wide mutex already gives
// single-writer semantics, so no row lock is needed.
func (r *txBalancesRepository) GetForUpdate(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	return r.Get(ctx, id)
}

func (r *txBalancesRepository) UpdateAvailable(ctx context.Context, id types.AccountID, newAvailableMinor, expectedVersion int64) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil || current.Version != expectedVersion {
		return domain.ErrOptimisticLock
	}
	current.AvailableMinor = newAvailableMinor
	current.Version = expectedVersion + 1
	current.UpdatedAt = time.Now().UTC()
	r.tx.stagedBalances[id] = current
	return nil
}

type txPaymentsRepository struct {
	tx *transactionalDataStore
}

func (r *txPaymentsRepository) Add(ctx context.Context, p *domain.Payment) error {
	cp := *p
	r.tx.stagedPayments[p.ID] = &cp
	return nil
}

func (r *txPaymentsRepository) Get(ctx context.Context, id types.PaymentID) (*domain.Payment, error) {
	if p, ok := r.tx.stagedPayments[id]; ok {
		cp := *p
		return &cp, nil
	}
	if p, ok := r.tx.parent.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

type txLedgerRepository struct {
	tx *transactionalDataStore
}

func (r *txLedgerRepository) Add(ctx context.Context, e *domain.LedgerEntry) error {
	cp := *e
	r.tx.stagedLedger = append(r.tx.stagedLedger, &cp)
	return nil
}

type txIdempotencyRepository struct {
	tx *transactionalDataStore
}

func (r *txIdempotencyRepository) lookup(key string) *domain.IdempotencyRecord {
	if rec, ok := r.tx.stagedIdempotency[key]; ok {
		return rec
	}
	if rec, ok := r.tx.parent.idempotency[key]; ok {
		return rec
	}
	return nil
}

func (r *txIdempotencyRepository) ClaimPending(ctx context.Context, key string, expiresAt time.Time) (bool, *domain.IdempotencyRecord, error) {
	now := time.Now().UTC()
	if existing := r.lookup(key); existing != nil && !existing.Expired(now) {
		cp := *existing
		return false, &cp, nil
	}
	r.tx.stagedIdempotency[key] = &domain.IdempotencyRecord{
		Key:       key,
		Status:    domain.IdempotencyPending,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	return true, nil, nil
}

func (r *txIdempotencyRepository) MarkCompleted(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(key, paymentID, snapshot, domain.IdempotencyCompleted)
}

func (r *txIdempotencyRepository) MarkFailed(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(key, paymentID, snapshot, domain.IdempotencyFailed)
}

func (r *txIdempotencyRepository) finalize(key string, paymentID types.PaymentID, snapshot []byte, status domain.IdempotencyStatus) error {
	existing := r.lookup(key)
	if existing == nil {
		return domain.ErrCorruptData
	}
	cp := *existing
	cp.PaymentID = paymentID
	cp.ResponseSnapshot = snapshot
	cp.Status = status
	r.tx.stagedIdempotency[key] = &cp
	return nil
}

func (r *txIdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for k, rec := range r.tx.parent.idempotency {
		if rec.Expired(now) {
			delete(r.tx.parent.idempotency, k)
			n++
		}
	}
	return n, nil
}

type txOutboxRepository struct {
	tx *transactionalDataStore
}

func (r *txOutboxRepository) Append(ctx context.Context, rec *domain.OutboxRecord) error {
	cp := *rec
	r.tx.stagedOutbox = append(r.tx.stagedOutbox, &cp)
	return nil
}

func (r *txOutboxRepository) ClaimUnpublished(ctx context.Context, limit int) ([]*domain.OutboxRecord, error) {
	var recs []*domain.OutboxRecord
	for _, rec := range r.tx.parent.outbox {
		if rec.PublishedAt == nil {
			recs = append(recs, rec)
			if len(recs) >= limit {
				break
			}
		}
	}
	return recs, nil
}

func (r *txOutboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	now := time.Now().UTC()
	idSet := make(map[types.EventID]bool)
	for _, id := range ids {
		idSet[id] = true
	}
	for _, rec := range r.tx.parent.outbox {
		if idSet[rec.ID] && rec.PublishedAt == nil {
			rec.PublishedAt = &now
		}
	}
	return nil
}

func (r *txOutboxRepository) IncrementRetry(ctx context.Context, id types.EventID) error {
	for _, rec := range r.tx.parent.outbox {
		if rec.ID == id {
			rec.RetryCount++
			return nil
		}
	}
	return nil
}

func (r *txOutboxRepository) ExhaustRetries(ctx context.Context, id types.EventID, retryCount int) error {
	for _, rec := range r.tx.parent.outbox {
		if rec.ID == id {
			rec.RetryCount = retryCount
			return nil
		}
	}
	return nil
}

func (r *txOutboxRepository) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	for _, rec := range r.tx.parent.outbox {
		if rec.PublishedAt == nil {
			n++
		}
	}
	return n, nil
}

// Non-transactional repository implementations (for direct access)

// AccountsRepository provides non-transactional access to in-memory accounts.
type AccountsRepository struct {
	store *DataStore
}

// Get loads an account by id. Returns (nil, nil) when missing.
func (r *AccountsRepository) Get(ctx context.Context, id types.AccountID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if a, ok := r.store.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

// BalancesRepository provides non-transactional access to in-memory balances.
type BalancesRepository struct {
	store *DataStore
}

// Get loads a balance by account id. Returns (nil, nil) when missing.
func (r *BalancesRepository) Get(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if b, ok := r.store.balances[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

// GetForUpdate behaves like Get outside a transaction.
func (r *BalancesRepository) GetForUpdate(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	return r.Get(ctx, id)
}

// UpdateAvailable applies the versioned update directly to the store.
func (r *BalancesRepository) UpdateAvailable(ctx context.Context, id types.AccountID, newAvailableMinor, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[id]
	if !ok || b.Version != expectedVersion {
		return domain.ErrOptimisticLock
	}
	b.AvailableMinor = newAvailableMinor
	b.Version = expectedVersion + 1
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// PaymentsRepository provides non-transactional access to in-memory payments.
type PaymentsRepository struct {
	store *DataStore
}

// Add stores a payment, overwriting any existing entry.
func (r *PaymentsRepository) Add(ctx context.Context, p *domain.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.payments[p.ID] = &cp
	return nil
}

// Get loads a payment by id. Returns (nil, nil) when missing.
func (r *PaymentsRepository) Get(ctx context.Context, id types.PaymentID) (*domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if p, ok := r.store.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

// LedgerRepository provides non-transactional access to in-memory ledger entries.
type LedgerRepository struct {
	store *DataStore
}

// Add appends a ledger entry.
func (r *LedgerRepository) Add(ctx context.Context, e *domain.LedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *e
	r.store.ledger = append(r.store.ledger, &cp)
	return nil
}

// IdempotencyRepository provides non-transactional access to in-memory idempotency records.
type IdempotencyRepository struct {
	store *DataStore
}

// ClaimPending inserts a PENDING record, or reclaims an expired one in place.
func (r *IdempotencyRepository) ClaimPending(ctx context.Context, key string, expiresAt time.Time) (bool, *domain.IdempotencyRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.store.idempotency[key]; ok && !existing.Expired(now) {
		cp := *existing
		return false, &cp, nil
	}
	r.store.idempotency[key] = &domain.IdempotencyRecord{
		Key:       key,
		Status:    domain.IdempotencyPending,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	return true, nil, nil
}

// MarkCompleted transitions the record to COMPLETED.
func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(key, paymentID, snapshot, domain.IdempotencyCompleted)
}

// MarkFailed transitions the record to FAILED.
func (r *IdempotencyRepository) MarkFailed(ctx context.Context, key string, paymentID types.PaymentID, snapshot []byte) error {
	return r.finalize(key, paymentID, snapshot, domain.IdempotencyFailed)
}

func (r *IdempotencyRepository) finalize(key string, paymentID types.PaymentID, snapshot []byte, status domain.IdempotencyStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.idempotency[key]
	if !ok {
		return domain.ErrCorruptData
	}
	rec.PaymentID = paymentID
	rec.ResponseSnapshot = snapshot
	rec.Status = status
	return nil
}

// DeleteExpired removes records whose retention window has passed.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for k, rec := range r.store.idempotency {
		if rec.Expired(now) {
			delete(r.store.idempotency, k)
			n++
		}
	}
	return n, nil
}

// OutboxRepository provides non-transactional access to in-memory outbox records.
type OutboxRepository struct {
	store *DataStore
}

// Append adds a record to the in-memory outbox.
func (r *OutboxRepository) Append(ctx context.Context, rec *domain.OutboxRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *rec
	r.store.outbox = append(r.store.outbox, &cp)
	return nil
}

// ClaimUnpublished returns unpublished records in insertion order, up to the limit.
func (r *OutboxRepository) ClaimUnpublished(ctx context.Context, limit int) ([]*domain.OutboxRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var recs []*domain.OutboxRecord
	for _, rec := range r.store.outbox {
		if rec.PublishedAt == nil {
			recs = append(recs, rec)
			if len(recs) >= limit {
				break
			}
		}
	}
	return recs, nil
}

// MarkPublished sets PublishedAt for the specified records.
// A non-null PublishedAt is never overwritten.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now().UTC()
	idSet := make(map[types.EventID]bool)
	for _, id := range ids {
		idSet[id] = true
	}
	for _, rec := range r.store.outbox {
		if idSet[rec.ID] && rec.PublishedAt == nil {
			rec.PublishedAt = &now
		}
	}
	return nil
}

// IncrementRetry bumps the retry counter for a record.
func (r *OutboxRepository) IncrementRetry(ctx context.Context, id types.EventID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.outbox {
		if rec.ID == id {
			rec.RetryCount++
			return nil
		}
	}
	return nil
}

// ExhaustRetries forces the retry counter for permanently undeliverable records.
func (r *OutboxRepository) ExhaustRetries(ctx context.Context, id types.EventID, retryCount int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.outbox {
		if rec.ID == id {
			rec.RetryCount = retryCount
			return nil
		}
	}
	return nil
}

// PendingCount returns the number of unpublished records.
func (r *OutboxRepository) PendingCount(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var n int64
	for _, rec := range r.store.outbox {
		if rec.PublishedAt == nil {
			n++
		}
	}
	return n, nil
}

// Verify interface implementations
var (
	_ domain.AtomicExecutor = (*DataStore)(nil)
	_ domain.Repositories   = (*DataStore)(nil)
)
