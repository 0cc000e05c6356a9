package domain

import (
	"time"

	"ledgerpay/internal/common/types"
)

// PaymentStatus is the outcome of an authorization attempt.
type PaymentStatus string

// Payment statuses. DUPLICATE is an outward-facing replay marker and is
// never persisted on a payment row.
const (
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	PaymentDeclined   PaymentStatus = "DECLINED"
	PaymentDuplicate  PaymentStatus = "DUPLICATE"
)

// Payment records a single authorization attempt, accepted or declined.
// Exactly one payment row exists per fresh idempotency claim.
type Payment struct {
	ID             types.PaymentID
	IdempotencyKey string
	PayerAccountID types.AccountID
	PayeeAccountID types.AccountID
	Amount         types.Money
	Status         PaymentStatus
	Description    string
	ErrorCode      string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPayment creates an authorized payment with a fresh time-sortable id.
func NewPayment(idempotencyKey string, payer, payee types.AccountID, amount types.Money, description string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:             types.NewPaymentID(),
		IdempotencyKey: idempotencyKey,
		PayerAccountID: payer,
		PayeeAccountID: payee,
		Amount:         amount,
		Status:         PaymentAuthorized,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewDeclinedPayment creates a declined payment carrying the decline reason.
// The decline is a committed outcome; balances and ledger are untouched.
func NewDeclinedPayment(idempotencyKey string, payer, payee types.AccountID, amount types.Money, description string, decline *DeclineError) *Payment {
	p := NewPayment(idempotencyKey, payer, payee, amount, description)
	p.Status = PaymentDeclined
	p.ErrorCode = string(decline.Code)
	p.ErrorMessage = decline.Message
	return p
}
