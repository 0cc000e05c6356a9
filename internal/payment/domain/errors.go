package domain

import (
	"errors"
	"fmt"
)

// DeclineCode identifies why an authorization was declined.
// Declines are committed domain outcomes, not failures.
type DeclineCode string

// Decline codes surfaced to callers.
const (
	DeclineInsufficientFunds DeclineCode = "INSUFFICIENT_FUNDS"
	DeclineAccountNotFound   DeclineCode = "ACCOUNT_NOT_FOUND"
	DeclineInvalidAmount     DeclineCode = "INVALID_AMOUNT"
	DeclineSameAccount       DeclineCode = "SAME_ACCOUNT"
	DeclineCurrencyMismatch  DeclineCode = "CURRENCY_MISMATCH"
	DeclineRateLimited       DeclineCode = "RATE_LIMITED"
)

// DeclineError carries a domain decline reason. The authorization engine
// converts it into a committed DECLINED payment rather than a rollback.
type DeclineError struct {
	Code    DeclineCode
	Message string
}

// Error implements the error interface.
func (e *DeclineError) Error() string {
	return fmt.Sprintf("declined: %s: %s", e.Code, e.Message)
}

// NewDecline creates a DeclineError with a formatted message.
func NewDecline(code DeclineCode, format string, args ...any) *DeclineError {
	return &DeclineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Infrastructure and lookup errors.
var (
	// ErrPaymentNotFound is returned when a payment cannot be found.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrBalanceNotFound is returned when an account balance row is missing.
	ErrBalanceNotFound = errors.New("account balance not found")

	// ErrOptimisticLock is returned when a versioned balance update affects zero rows.
	// Callers may retry with the same idempotency key.
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrRequestInFlight is returned when an idempotency record is still PENDING.
	// Surfaced to the caller as a transient failure; never blocks.
	ErrRequestInFlight = errors.New("request with this idempotency key is in flight")

	// ErrCorruptData is returned when data loaded from persistence is invalid.
	ErrCorruptData = errors.New("corrupt data in database")
)
