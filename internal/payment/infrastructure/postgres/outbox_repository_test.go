package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
	"ledgerpay/internal/payment/infrastructure/postgres"
)

// OutboxRepositorySuite tests outbox draining semantics against a real
// Postgres instance.
//
// Justification: FOR UPDATE SKIP LOCKED and the partial index on
// unpublished rows are Postgres behaviors worth pinning down.
type OutboxRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	ds   *postgres.DataStore
	repo *postgres.OutboxRepository
}

func TestOutboxRepositorySuite(t *testing.T) {
	suite.Run(t, new(OutboxRepositorySuite))
}

func (s *OutboxRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(truncateTables(s.ctx, getTestPool()))
	s.ds = postgres.NewDataStore(getTestPool())
	s.repo = postgres.NewOutboxRepository(getTestPool())
}

func (s *OutboxRepositorySuite) appendRecord(eventType string) *domain.OutboxRecord {
	rec, err := domain.NewOutboxRecord(domain.AggregatePayment, types.NewPaymentID().String(),
		eventType, map[string]string{"k": "v"})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Append(s.ctx, rec))
	return rec
}

func (s *OutboxRepositorySuite) TestDrainLifecycle() {
	s.Run("claims come back in creation order", func() {
		first := s.appendRecord("PaymentAuthorized")
		time.Sleep(2 * time.Millisecond)
		second := s.appendRecord("PaymentDeclined")

		recs, err := s.repo.ClaimUnpublished(s.ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(recs, 2)
		s.Equal(first.ID, recs[0].ID)
		s.Equal(second.ID, recs[1].ID)
	})

	s.Run("published records leave the queue", func() {
		rec := s.appendRecord("PaymentAuthorized")

		s.Require().NoError(s.repo.MarkPublished(s.ctx, []types.EventID{rec.ID}))

		recs, err := s.repo.ClaimUnpublished(s.ctx, 10)
		s.Require().NoError(err)
		for _, r := range recs {
			s.NotEqual(rec.ID, r.ID)
		}

	})

	s.Run("published_at is never overwritten", func() {
		rec := s.appendRecord("PaymentAuthorized")
		s.Require().NoError(s.repo.MarkPublished(s.ctx, []types.EventID{rec.ID}))

		var firstPublished time.Time
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT published_at FROM outbox WHERE id = $1`, rec.ID.String()).Scan(&firstPublished))

		time.Sleep(2 * time.Millisecond)
		s.Require().NoError(s.repo.MarkPublished(s.ctx, []types.EventID{rec.ID}))

		var secondPublished time.Time
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT published_at FROM outbox WHERE id = $1`, rec.ID.String()).Scan(&secondPublished))
		s.True(firstPublished.Equal(secondPublished))
	})

	s.Run("retry bookkeeping", func() {
		rec := s.appendRecord("PaymentAuthorized")

		s.Require().NoError(s.repo.IncrementRetry(s.ctx, rec.ID))
		s.Require().NoError(s.repo.IncrementRetry(s.ctx, rec.ID))

		var retries int
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT retry_count FROM outbox WHERE id = $1`, rec.ID.String()).Scan(&retries))
		s.Equal(2, retries)

		s.Require().NoError(s.repo.ExhaustRetries(s.ctx, rec.ID, 5))
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT retry_count FROM outbox WHERE id = $1`, rec.ID.String()).Scan(&retries))
		s.Equal(5, retries)
	})
}

func (s *OutboxRepositorySuite) TestSkipLocked() {
	s.Run("rows claimed by one transaction are invisible to another", func() {
		for range 4 {
			s.appendRecord("PaymentAuthorized")
		}

		claimedInTx := make(chan int, 1)
		release := make(chan struct{})

		go func() {
			_ = s.ds.Atomic(s.ctx, func(repos domain.Repositories) error {
				recs, err := repos.Outbox().ClaimUnpublished(s.ctx, 2)
				if err != nil {
					claimedInTx <- -1
					return err
				}
				claimedInTx <- len(recs)
				<-release
				return nil
			})
		}()

		s.Require().Equal(2, <-claimedInTx)

		// Second claimant must skip the locked rows.
		err := s.ds.Atomic(s.ctx, func(repos domain.Repositories) error {
			recs, err := repos.Outbox().ClaimUnpublished(s.ctx, 10)
			if err != nil {
				return err
			}
			s.Len(recs, 2, "locked rows must be skipped, not waited on")
			return nil
		})
		s.Require().NoError(err)

		close(release)
	})
}

func (s *OutboxRepositorySuite) TestPendingCount() {
	s.appendRecord("PaymentAuthorized")
	rec := s.appendRecord("PaymentAuthorized")
	s.Require().NoError(s.repo.MarkPublished(s.ctx, []types.EventID{rec.ID}))

	n, err := s.repo.PendingCount(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, n)
}
