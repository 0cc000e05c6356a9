package events

import (
	"encoding/json"
	"time"

	"ledgerpay/internal/common/types"
)

// Event type names published by the authorization engine.
const (
	TypePaymentAuthorized = "PaymentAuthorized"
	TypePaymentDeclined   = "PaymentDeclined"
)

// Envelope is the canonical wire format for all broker messages.
// Timestamps serialize as RFC3339 with offset.
type Envelope struct {
	EventID       types.EventID   `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

// UnmarshalPayload decodes the payload into the target struct.
func (e Envelope) UnmarshalPayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// DeadLetter wraps an envelope for the DLQ topic, recording why
// delivery was abandoned. A dead-lettered event is terminal.
type DeadLetter struct {
	Envelope
	RetryCount int       `json:"retry_count"`
	FailedAt   time.Time `json:"failed_at"`
	Error      string    `json:"error"`
}

// NewDeadLetter wraps an envelope with retry-exhaustion metadata.
func NewDeadLetter(e Envelope, retryCount int, reason string) DeadLetter {
	return DeadLetter{
		Envelope:   e,
		RetryCount: retryCount,
		FailedAt:   time.Now().UTC(),
		Error:      reason,
	}
}

// PaymentAuthorizedPayload is the payload for a PaymentAuthorized event.
type PaymentAuthorizedPayload struct {
	PaymentID      string `json:"payment_id"`
	PayerAccountID string `json:"payer_account_id"`
	PayeeAccountID string `json:"payee_account_id"`
	AmountMinor    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
}

// PaymentDeclinedPayload is the payload for a PaymentDeclined event.
type PaymentDeclinedPayload struct {
	PaymentID      string `json:"payment_id"`
	PayerAccountID string `json:"payer_account_id"`
	PayeeAccountID string `json:"payee_account_id"`
	AmountMinor    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
}
