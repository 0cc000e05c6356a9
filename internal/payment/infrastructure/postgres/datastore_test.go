package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/application"
	"ledgerpay/internal/payment/domain"
	"ledgerpay/internal/payment/infrastructure/postgres"
)

// DataStoreSuite exercises the Atomic pattern and the full
// authorization flow against a real Postgres instance.
//
// Justification: row locks, FOR UPDATE ordering and the versioned
// balance update are database behaviors that in-memory fakes cannot
// replicate.
type DataStoreSuite struct {
	suite.Suite
	ctx context.Context
	ds  *postgres.DataStore
	svc *application.PaymentService
}

func TestDataStoreSuite(t *testing.T) {
	suite.Run(t, new(DataStoreSuite))
}

func (s *DataStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(truncateTables(s.ctx, getTestPool()))
	s.ds = postgres.NewDataStore(getTestPool())
	s.svc = application.NewPaymentService(s.ds, 24*time.Hour)
}

func (s *DataStoreSuite) seedAccount(currency string, availableMinor int64) types.AccountID {
	id := types.NewAccountID()
	_, err := getTestPool().Exec(s.ctx, `
		INSERT INTO accounts (id, owner_id, currency, status) VALUES ($1, $2, $3, 'ACTIVE')`,
		id.String(), "owner-"+id.String(), currency)
	s.Require().NoError(err)
	_, err = getTestPool().Exec(s.ctx, `
		INSERT INTO account_balances (account_id, available_minor, currency) VALUES ($1, $2, $3)`,
		id.String(), availableMinor, currency)
	s.Require().NoError(err)
	return id
}

func (s *DataStoreSuite) TestAtomicCommitAndRollback() {
	s.Run("callback error rolls back every write", func() {
		payer := s.seedAccount("USD", 1_000)

		sentinel := errors.New("boom")
		err := s.ds.Atomic(s.ctx, func(repos domain.Repositories) error {
			p := domain.NewPayment("key-rollback", payer, types.NewAccountID(),
				types.Money{AmountMinor: 100, Currency: "USD"}, "")
			s.Require().NoError(repos.Payments().Add(s.ctx, p))
			s.Require().NoError(repos.Balances().UpdateAvailable(s.ctx, payer, 900, 1))
			return sentinel
		})
		s.Require().ErrorIs(err, sentinel)

		var paymentCount int
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT COUNT(*) FROM payments`).Scan(&paymentCount))
		s.Zero(paymentCount, "payment insert must be rolled back")

		bal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(1_000, bal.AvailableMinor, "balance update must be rolled back")
		s.EqualValues(1, bal.Version)
	})

	s.Run("successful callback commits", func() {
		payer := s.seedAccount("USD", 1_000)

		err := s.ds.Atomic(s.ctx, func(repos domain.Repositories) error {
			return repos.Balances().UpdateAvailable(s.ctx, payer, 500, 1)
		})
		s.Require().NoError(err)

		bal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(500, bal.AvailableMinor)
		s.EqualValues(2, bal.Version)
	})
}

func (s *DataStoreSuite) TestBalanceOptimisticLocking() {
	s.Run("stale version loses the race", func() {
		payer := s.seedAccount("USD", 1_000)

		s.Require().NoError(s.ds.Balances().UpdateAvailable(s.ctx, payer, 900, 1))

		err := s.ds.Balances().UpdateAvailable(s.ctx, payer, 800, 1)
		s.Require().ErrorIs(err, domain.ErrOptimisticLock)

		bal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(900, bal.AvailableMinor)
	})

	s.Run("negative balance is rejected by the database", func() {
		payer := s.seedAccount("USD", 100)

		err := s.ds.Balances().UpdateAvailable(s.ctx, payer, -1, 1)
		s.Require().Error(err, "check constraint must reject negative available")
	})
}

func (s *DataStoreSuite) TestAuthorizeEndToEnd() {
	s.Run("authorization persists payment, ledger pair and outbox atomically", func() {
		payer := s.seedAccount("USD", 10_000)
		payee := s.seedAccount("USD", 0)

		res, err := s.svc.Authorize(s.ctx, application.AuthorizeCommand{
			IdempotencyKey: "e2e-1",
			PayerAccountID: payer,
			PayeeAccountID: payee,
			Amount:         types.Money{AmountMinor: 2_500, Currency: "USD"},
			Description:    "e2e",
		})
		s.Require().NoError(err)
		s.Equal(domain.PaymentAuthorized, res.Status)

		var entryCount int
		s.Require().NoError(getTestPool().QueryRow(s.ctx,
			`SELECT COUNT(*) FROM ledger_entries WHERE payment_id = $1`,
			res.PaymentID.String()).Scan(&entryCount))
		s.Equal(2, entryCount)

		var debitSum, creditSum int64
		s.Require().NoError(getTestPool().QueryRow(s.ctx, `
			SELECT COALESCE(SUM(amount_minor) FILTER (WHERE entry_type = 'DEBIT'), 0),
			       COALESCE(SUM(amount_minor) FILTER (WHERE entry_type = 'CREDIT'), 0)
			FROM ledger_entries WHERE payment_id = $1`,
			res.PaymentID.String()).Scan(&debitSum, &creditSum))
		s.Equal(debitSum, creditSum, "ledger must balance")

		pending, err := s.ds.Outbox().PendingCount(s.ctx)
		s.Require().NoError(err)
		s.EqualValues(1, pending)

		payerBal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(7_500, payerBal.AvailableMinor)
	})

	s.Run("replay returns the original outcome", func() {
		payer := s.seedAccount("USD", 1_000)
		payee := s.seedAccount("USD", 0)

		cmd := application.AuthorizeCommand{
			IdempotencyKey: "e2e-replay",
			PayerAccountID: payer,
			PayeeAccountID: payee,
			Amount:         types.Money{AmountMinor: 400, Currency: "USD"},
		}

		first, err := s.svc.Authorize(s.ctx, cmd)
		s.Require().NoError(err)

		second, err := s.svc.Authorize(s.ctx, cmd)
		s.Require().NoError(err)
		s.Equal(domain.PaymentDuplicate, second.Status)
		s.Equal(first.PaymentID, second.PaymentID)

		payerBal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(600, payerBal.AvailableMinor, "funds must move exactly once")
	})

	s.Run("concurrent spends from one payer serialize on the row lock", func() {
		payer := s.seedAccount("USD", 1_000)
		payeeA := s.seedAccount("USD", 0)
		payeeB := s.seedAccount("USD", 0)

		var wg sync.WaitGroup
		results := make([]*application.AuthorizeResult, 2)
		errs := make([]error, 2)

		run := func(i int, key string, payee types.AccountID) {
			defer wg.Done()
			results[i], errs[i] = s.svc.Authorize(s.ctx, application.AuthorizeCommand{
				IdempotencyKey: key,
				PayerAccountID: payer,
				PayeeAccountID: payee,
				Amount:         types.Money{AmountMinor: 600, Currency: "USD"},
			})
		}

		wg.Add(2)
		go run(0, "race-a", payeeA)
		go run(1, "race-b", payeeB)
		wg.Wait()

		s.Require().NoError(errs[0])
		s.Require().NoError(errs[1])

		authorized, declined := 0, 0
		for _, res := range results {
			switch res.Status {
			case domain.PaymentAuthorized:
				authorized++
			case domain.PaymentDeclined:
				declined++
				s.Equal(string(domain.DeclineInsufficientFunds), res.ErrorCode)
			}
		}
		s.Equal(1, authorized, "only one spend fits the balance")
		s.Equal(1, declined, "the loser re-checks under the lock and declines")

		payerBal, err := s.ds.Balances().Get(s.ctx, payer)
		s.Require().NoError(err)
		s.EqualValues(400, payerBal.AvailableMinor)
	})
}
