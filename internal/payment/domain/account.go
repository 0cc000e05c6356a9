package domain

import (
	"time"

	"ledgerpay/internal/common/types"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account statuses.
const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountClosed    AccountStatus = "CLOSED"
)

// Account is a party that can hold funds. Accounts are created
// out-of-band and read-only to the authorization engine.
// The currency is immutable for the account's lifetime.
type Account struct {
	ID        types.AccountID
	OwnerID   string
	Currency  string
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the account may participate in payments.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// AccountBalance is the mutable funds position of an account,
// one-to-one with Account. Mutated only inside the authorization
// engine's transaction; version strictly increases on every write.
type AccountBalance struct {
	AccountID      types.AccountID
	AvailableMinor int64
	PendingMinor   int64
	Currency       string
	Version        int64
	UpdatedAt      time.Time
}
