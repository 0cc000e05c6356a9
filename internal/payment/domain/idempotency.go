package domain

import (
	"encoding/json"
	"time"

	"ledgerpay/internal/common/types"
)

// IdempotencyStatus is the lifecycle state of an idempotency record.
// The only legal transitions are PENDING -> COMPLETED and PENDING -> FAILED.
// An expired terminal record is equivalent to absence for a new attempt.
type IdempotencyStatus string

// Idempotency statuses.
const (
	IdempotencyPending   IdempotencyStatus = "PENDING"
	IdempotencyCompleted IdempotencyStatus = "COMPLETED"
	IdempotencyFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyRecord pins a client-supplied key to the single outcome of
// the attempt it guards. The response snapshot mirrors the original
// response so replays converge without re-processing.
type IdempotencyRecord struct {
	Key              string
	PaymentID        types.PaymentID
	ResponseSnapshot json.RawMessage
	Status           IdempotencyStatus
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Expired reports whether the record's retention window has passed.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
