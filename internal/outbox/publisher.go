// Package outbox drains the transactional outbox and delivers event
// envelopes to the broker, with retry bookkeeping and a dead-letter
// topic for events that exhaust their retries.
package outbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"ledgerpay/internal/payment/domain"
)

// KafkaBroker implements domain.Broker on a synchronous Kafka producer.
// The producer is configured idempotent with acks=all, so a returned
// nil error means the full ISR has the message.
type KafkaBroker struct {
	producer sarama.SyncProducer
}

// NewKafkaBroker creates a KafkaBroker connected to the given brokers.
func NewKafkaBroker(addrs []string, cfg *sarama.Config) (*KafkaBroker, error) {
	producer, err := sarama.NewSyncProducer(addrs, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return &KafkaBroker{producer: producer}, nil
}

// Publish sends one message. The key determines the partition, so all
// events of one aggregate stay ordered.
func (b *KafkaBroker) Publish(ctx context.Context, topic, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

// Close shuts down the underlying producer.
func (b *KafkaBroker) Close() error {
	return b.producer.Close()
}

// Verify interface implementation.
var _ domain.Broker = (*KafkaBroker)(nil)

// TopicFor maps an event type to its topic: "<prefix>.<eventtype>",
// event type lowercased.
func TopicFor(prefix, eventType string) string {
	return prefix + "." + strings.ToLower(eventType)
}

// DeadLetterTopic is the DLQ topic for the given prefix.
func DeadLetterTopic(prefix string) string {
	return prefix + ".dlq"
}
