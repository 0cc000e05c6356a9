package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/IBM/sarama"

	"ledgerpay/internal/common/events"
	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// maxConsecutiveFailures is the circuit breaker threshold. A cycle
// counts as failed when it errors outright or when a non-empty batch
// yields zero successful publishes.
const maxConsecutiveFailures = 10

// ErrBreakerOpen is returned by Run after too many consecutive failed
// cycles. The process should exit and let its supervisor restart it
// against a hopefully recovered broker.
var ErrBreakerOpen = errors.New("outbox: circuit breaker open")

// Config holds the worker settings.
type Config struct {
	TopicPrefix  string
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
}

// Worker drains the outbox on an interval. Each cycle runs a single
// transaction: claim a batch with row locks, publish, record outcomes,
// commit. Publishing inside the claim transaction means a crash after a
// successful send but before commit redelivers the event, which is the
// at-least-once contract consumers must expect.
type Worker struct {
	store  domain.AtomicExecutor
	broker domain.Broker
	cfg    Config

	consecutiveFailures int
}

// NewWorker creates a Worker.
func NewWorker(store domain.AtomicExecutor, broker domain.Broker, cfg Config) *Worker {
	return &Worker{store: store, broker: broker, cfg: cfg}
}

// Run polls until the context is cancelled or the circuit breaker
// latches, in which case it returns ErrBreakerOpen. A cycle that
// claimed a full batch rolls straight into the next one so a backlog
// drains faster than the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	logging.Info("outbox worker started",
		"poll_interval", w.cfg.PollInterval.String(),
		"batch_size", w.cfg.BatchSize,
	)

	for {
		published, attempted, err := w.ProcessOnce(ctx)
		if err != nil && ctx.Err() != nil {
			logging.Info("outbox worker stopped")
			return ctx.Err()
		}

		switch {
		case err != nil:
			w.consecutiveFailures++
			logging.ErrorContext(ctx, "outbox cycle failed",
				"error", err,
				"consecutive_failures", w.consecutiveFailures,
			)
		case attempted > 0 && published == 0:
			w.consecutiveFailures++
		default:
			w.consecutiveFailures = 0
		}

		if w.consecutiveFailures >= maxConsecutiveFailures {
			logging.Error("outbox circuit breaker open, stopping worker",
				"consecutive_failures", w.consecutiveFailures,
			)
			return ErrBreakerOpen
		}

		if err == nil && attempted > 0 && attempted == w.cfg.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			logging.Info("outbox worker stopped")
			return ctx.Err()
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// ProcessOnce runs one claim-publish-commit cycle and reports how many
// records were attempted and how many were delivered (dead-lettering
// counts as delivery).
func (w *Worker) ProcessOnce(ctx context.Context) (published, attempted int, err error) {
	err = w.store.Atomic(ctx, func(repos domain.Repositories) error {
		batch, err := repos.Outbox().ClaimUnpublished(ctx, w.cfg.BatchSize)
		if err != nil {
			return err
		}
		attempted = len(batch)
		if len(batch) == 0 {
			return nil
		}

		var done []types.EventID
		for _, rec := range batch {
			// Cancellation stops new sends mid-batch; the rollback
			// leaves the whole batch for the next run.
			if err := ctx.Err(); err != nil {
				return err
			}
			if rec.RetryCount >= w.cfg.MaxRetries {
				if w.deadLetter(ctx, rec) {
					done = append(done, rec.ID)
					published++
				}
				continue
			}
			if w.deliver(ctx, repos, rec) {
				done = append(done, rec.ID)
				published++
			}
		}

		if err := repos.Outbox().MarkPublished(ctx, done); err != nil {
			return err
		}

		pending, err := repos.Outbox().PendingCount(ctx)
		if err != nil {
			return err
		}
		metrics.OutboxPendingDepth.Set(float64(pending))
		return nil
	})
	return published, attempted, err
}

// deliver publishes one record to its event topic. Failures update the
// retry counter in place; the record stays unpublished for the next
// cycle.
func (w *Worker) deliver(ctx context.Context, repos domain.Repositories, rec *domain.OutboxRecord) bool {
	envelope := events.Envelope{
		EventID:       rec.ID,
		AggregateType: rec.AggregateType,
		AggregateID:   rec.AggregateID,
		EventType:     rec.EventType,
		Payload:       rec.Payload,
		Timestamp:     rec.CreatedAt,
	}
	value, err := marshalEnvelope(envelope)
	if err != nil {
		logging.ErrorContext(ctx, "outbox envelope not serializable, dead-lettering",
			"event_id", rec.ID.String(), "error", err)
		_ = repos.Outbox().ExhaustRetries(ctx, rec.ID, w.cfg.MaxRetries)
		return false
	}

	topic := TopicFor(w.cfg.TopicPrefix, rec.EventType)
	if err := w.broker.Publish(ctx, topic, rec.AggregateID, value); err != nil {
		metrics.OutboxPublishFailures.Inc()

		if isPermanentError(err) {
			logging.ErrorContext(ctx, "permanent publish error, exhausting retries",
				"event_id", rec.ID.String(), "topic", topic, "error", err)
			_ = repos.Outbox().ExhaustRetries(ctx, rec.ID, w.cfg.MaxRetries)
			return false
		}

		logging.WarnContext(ctx, "publish failed, will retry",
			"event_id", rec.ID.String(),
			"topic", topic,
			"retry_count", rec.RetryCount+1,
			"next_attempt_in", w.backoffDelay(rec.RetryCount+1).String(),
			"error", err,
		)
		_ = repos.Outbox().IncrementRetry(ctx, rec.ID)
		return false
	}

	metrics.OutboxPublished.Inc()
	return true
}

// deadLetter routes an exhausted record to the DLQ topic. A
// dead-lettered event counts as published; the DLQ is its terminal
// destination.
func (w *Worker) deadLetter(ctx context.Context, rec *domain.OutboxRecord) bool {
	envelope := events.Envelope{
		EventID:       rec.ID,
		AggregateType: rec.AggregateType,
		AggregateID:   rec.AggregateID,
		EventType:     rec.EventType,
		Payload:       rec.Payload,
		Timestamp:     rec.CreatedAt,
	}
	value, err := marshalEnvelope(events.NewDeadLetter(envelope, rec.RetryCount, "max_retries_exceeded"))
	if err != nil {
		logging.ErrorContext(ctx, "dead letter not serializable",
			"event_id", rec.ID.String(), "error", err)
		return false
	}

	topic := DeadLetterTopic(w.cfg.TopicPrefix)
	if err := w.broker.Publish(ctx, topic, rec.AggregateID, value); err != nil {
		logging.ErrorContext(ctx, "dead letter publish failed",
			"event_id", rec.ID.String(), "error", err)
		return false
	}

	metrics.OutboxDeadLettered.Inc()
	logging.WarnContext(ctx, "event dead-lettered",
		"event_id", rec.ID.String(),
		"event_type", rec.EventType,
		"retry_count", rec.RetryCount,
	)
	return true
}

// backoffDelay computes min(base * 2^retry, max) plus up to 10% jitter.
// The delay is advisory: it is logged for operators but not persisted,
// so a restarted worker retries immediately.
func (w *Worker) backoffDelay(retry int) time.Duration {
	delay := w.cfg.BaseDelay
	for i := 0; i < retry && delay < w.cfg.MaxDelay; i++ {
		delay *= 2
	}
	if delay > w.cfg.MaxDelay {
		delay = w.cfg.MaxDelay
	}
	if jitterMax := int64(delay / 10); jitterMax > 0 {
		delay += time.Duration(rand.Int64N(jitterMax))
	}
	return delay
}

func marshalEnvelope(v any) ([]byte, error) {
	return json.Marshal(v)
}

// isPermanentError reports whether retrying the publish can never
// succeed.
func isPermanentError(err error) bool {
	return errors.Is(err, sarama.ErrMessageSizeTooLarge) ||
		errors.Is(err, sarama.ErrInvalidMessage) ||
		errors.Is(err, sarama.ErrInvalidTopic)
}
