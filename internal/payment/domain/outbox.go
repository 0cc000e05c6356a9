package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"ledgerpay/internal/common/types"
)

// AggregatePayment is the aggregate type for payment events.
const AggregatePayment = "Payment"

// OutboxRecord is an event staged for asynchronous delivery, inserted
// inside the authorization transaction. A non-null PublishedAt is final
// and must not be overwritten; dead-lettering also counts as publication.
// AggregateID is a free string with no FK so event retention is
// independent of business-entity lifetime.
type OutboxRecord struct {
	ID            types.EventID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
	PublishedAt   *time.Time
	RetryCount    int
}

// NewOutboxRecord creates an outbox record with a fresh time-sortable id.
func NewOutboxRecord(aggregateType, aggregateID, eventType string, payload any) (*OutboxRecord, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling outbox payload: %w", err)
	}

	return &OutboxRecord{
		ID:            types.NewEventID(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payloadBytes,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Published reports whether the record is terminal.
func (r *OutboxRecord) Published() bool {
	return r.PublishedAt != nil
}
