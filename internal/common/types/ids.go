package types

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidID is returned when parsing a malformed identifier.
var ErrInvalidID = errors.New("invalid id")

// Entity identifiers are 26-character ULIDs: lexicographic order
// approximates creation order, which keeps ledger entries and payments
// sortable by id alone.

// PaymentID uniquely identifies a payment.
type PaymentID string

// AccountID uniquely identifies an account.
type AccountID string

// LedgerEntryID uniquely identifies a ledger entry.
type LedgerEntryID string

// EventID uniquely identifies an outbox event.
type EventID string

// CorrelationID tracks a request across service boundaries.
type CorrelationID string

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newULID mints a time-ordered ULID. The monotonic entropy source is
// shared, so the mutex keeps concurrent mints strictly increasing
// within the same millisecond.
func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewPaymentID generates a new time-sortable PaymentID.
func NewPaymentID() PaymentID {
	return PaymentID(newULID())
}

// NewAccountID generates a new time-sortable AccountID.
func NewAccountID() AccountID {
	return AccountID(newULID())
}

// NewLedgerEntryID generates a new time-sortable LedgerEntryID.
func NewLedgerEntryID() LedgerEntryID {
	return LedgerEntryID(newULID())
}

// NewEventID generates a new time-sortable EventID.
func NewEventID() EventID {
	return EventID(newULID())
}

// NewCorrelationID generates a new unique CorrelationID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}

// ParsePaymentID validates a PaymentID in ULID form.
func ParsePaymentID(s string) (PaymentID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalidID
	}
	return PaymentID(s), nil
}

// ParseAccountID validates an AccountID in ULID form.
func ParseAccountID(s string) (AccountID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalidID
	}
	return AccountID(s), nil
}

// String returns the string representation of PaymentID.
func (p PaymentID) String() string {
	return string(p)
}

// String returns the string representation of AccountID.
func (a AccountID) String() string {
	return string(a)
}

// String returns the string representation of LedgerEntryID.
func (l LedgerEntryID) String() string {
	return string(l)
}

// String returns the string representation of EventID.
func (e EventID) String() string {
	return string(e)
}

// String returns the string representation of CorrelationID.
func (c CorrelationID) String() string {
	return string(c)
}

// IsEmpty checks if the PaymentID is empty.
func (p PaymentID) IsEmpty() bool {
	return p == ""
}

// IsEmpty checks if the AccountID is empty.
func (a AccountID) IsEmpty() bool {
	return a == ""
}

// IsEmpty checks if the CorrelationID is empty.
func (c CorrelationID) IsEmpty() bool {
	return c == ""
}
