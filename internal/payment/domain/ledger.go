package domain

import (
	"time"

	"ledgerpay/internal/common/types"
)

// EntryType distinguishes the two sides of a double-entry posting.
type EntryType string

// Entry types.
const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// LedgerEntry is one side of a double-entry posting. Entries are written
// in the same transaction as their payment and never mutated. Every
// authorized payment produces exactly one DEBIT and one CREDIT of equal
// amount and currency.
type LedgerEntry struct {
	ID                types.LedgerEntryID
	PaymentID         types.PaymentID
	AccountID         types.AccountID
	EntryType         EntryType
	Amount            types.Money
	BalanceAfterMinor int64
	CreatedAt         time.Time
}

// NewLedgerEntry creates a ledger entry with a fresh time-sortable id.
func NewLedgerEntry(paymentID types.PaymentID, accountID types.AccountID, entryType EntryType, amount types.Money, balanceAfterMinor int64) *LedgerEntry {
	return &LedgerEntry{
		ID:                types.NewLedgerEntryID(),
		PaymentID:         paymentID,
		AccountID:         accountID,
		EntryType:         entryType,
		Amount:            amount,
		BalanceAfterMinor: balanceAfterMinor,
		CreatedAt:         time.Now().UTC(),
	}
}
