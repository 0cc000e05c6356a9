package application

import (
	"context"
	"encoding/json"
	"time"

	"ledgerpay/internal/common/events"
	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/domain"
)

// PaymentService implements the authorization engine. Every
// state-changing operation runs inside a single Atomic transaction:
// idempotency claim, validation, balance locking, ledger posting,
// outbox enqueue and idempotency completion commit or roll back
// together.
//
// Domain declines are committed outcomes: the engine records a DECLINED
// payment and commits. Only infrastructure failures roll back.
type PaymentService struct {
	dataStore      domain.AtomicExecutor
	repos          domain.Repositories
	idempotencyTTL time.Duration
}

// NewPaymentService creates a new PaymentService.
// The dataStore must implement both AtomicExecutor and Repositories.
func NewPaymentService(dataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}, idempotencyTTL time.Duration) *PaymentService {
	return &PaymentService{
		dataStore:      dataStore,
		repos:          dataStore,
		idempotencyTTL: idempotencyTTL,
	}
}

// AuthorizeCommand is a request to authorize a fund movement.
type AuthorizeCommand struct {
	IdempotencyKey string
	PayerAccountID types.AccountID
	PayeeAccountID types.AccountID
	Amount         types.Money
	Description    string
}

// AuthorizeResult is the sum-typed outcome of an authorization attempt.
// The DECLINED variant carries the decline code; transport-level error
// channels are reserved for infrastructure failures.
type AuthorizeResult struct {
	PaymentID    types.PaymentID
	Status       domain.PaymentStatus
	ErrorCode    string
	ErrorMessage string
	ProcessedAt  time.Time
}

// responseSnapshot mirrors the original response for idempotent replay.
type responseSnapshot struct {
	PaymentID    string    `json:"payment_id"`
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Authorize decides a proposed fund movement and records it atomically.
// Replays with a known idempotency key converge on the original outcome
// without touching balances.
func (s *PaymentService) Authorize(ctx context.Context, cmd AuthorizeCommand) (*AuthorizeResult, error) {
	start := time.Now()
	var result *AuthorizeResult

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		claimed, existing, err := repos.Idempotency().ClaimPending(
			ctx, cmd.IdempotencyKey, time.Now().UTC().Add(s.idempotencyTTL))
		if err != nil {
			return err
		}
		if !claimed {
			replay, err := s.replayOutcome(ctx, existing)
			if err != nil {
				return err
			}
			result = replay
			return nil
		}

		if decline, err := s.validate(ctx, repos, cmd); err != nil {
			return err
		} else if decline != nil {
			result, err = s.commitDecline(ctx, repos, cmd, decline)
			return err
		}

		payment := domain.NewPayment(cmd.IdempotencyKey, cmd.PayerAccountID, cmd.PayeeAccountID, cmd.Amount, cmd.Description)

		if decline, err := s.executeTransfer(ctx, repos, payment); err != nil {
			return err
		} else if decline != nil {
			result, err = s.commitDecline(ctx, repos, cmd, decline)
			return err
		}

		outboxRec, err := domain.NewOutboxRecord(
			domain.AggregatePayment,
			payment.ID.String(),
			events.TypePaymentAuthorized,
			events.PaymentAuthorizedPayload{
				PaymentID:      payment.ID.String(),
				PayerAccountID: payment.PayerAccountID.String(),
				PayeeAccountID: payment.PayeeAccountID.String(),
				AmountMinor:    payment.Amount.AmountMinor,
				Currency:       payment.Amount.Currency,
			},
		)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Append(ctx, outboxRec); err != nil {
			return err
		}

		snapshot, err := json.Marshal(responseSnapshot{
			PaymentID:   payment.ID.String(),
			Status:      string(domain.PaymentAuthorized),
			ProcessedAt: payment.CreatedAt,
		})
		if err != nil {
			return err
		}
		if err := repos.Idempotency().MarkCompleted(ctx, cmd.IdempotencyKey, payment.ID, snapshot); err != nil {
			return err
		}

		logging.InfoContext(ctx, "payment authorized",
			"payment_id", payment.ID.String(),
			"payer", payment.PayerAccountID.String(),
			"payee", payment.PayeeAccountID.String(),
			"amount", payment.Amount.String(),
		)

		result = &AuthorizeResult{
			PaymentID:   payment.ID,
			Status:      domain.PaymentAuthorized,
			ProcessedAt: payment.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(string(result.Status), result.ErrorCode, time.Since(start))
	return result, nil
}

// replayOutcome reconstructs the original response from a live
// idempotency record. A PENDING record means another attempt is in
// flight; the caller gets a transient failure rather than a block.
func (s *PaymentService) replayOutcome(ctx context.Context, rec *domain.IdempotencyRecord) (*AuthorizeResult, error) {
	switch rec.Status {
	case domain.IdempotencyCompleted:
		var snap responseSnapshot
		if err := json.Unmarshal(rec.ResponseSnapshot, &snap); err != nil {
			return nil, domain.ErrCorruptData
		}
		logging.InfoContext(ctx, "idempotent replay", "payment_id", rec.PaymentID.String())
		return &AuthorizeResult{
			PaymentID:   rec.PaymentID,
			Status:      domain.PaymentDuplicate,
			ProcessedAt: snap.ProcessedAt,
		}, nil

	case domain.IdempotencyFailed:
		var snap responseSnapshot
		if err := json.Unmarshal(rec.ResponseSnapshot, &snap); err != nil {
			return nil, domain.ErrCorruptData
		}
		logging.InfoContext(ctx, "idempotent replay of decline",
			"payment_id", rec.PaymentID.String(), "error_code", snap.ErrorCode)
		return &AuthorizeResult{
			PaymentID:    rec.PaymentID,
			Status:       domain.PaymentDeclined,
			ErrorCode:    snap.ErrorCode,
			ErrorMessage: snap.ErrorMessage,
			ProcessedAt:  snap.ProcessedAt,
		}, nil

	default:
		return nil, domain.ErrRequestInFlight
	}
}

// validate runs the ordered domain checks with plain reads. The first
// failure determines the decline code. A nil decline means the command
// may proceed to the locked transfer.
func (s *PaymentService) validate(ctx context.Context, repos domain.Repositories, cmd AuthorizeCommand) (*domain.DeclineError, error) {
	if cmd.Amount.AmountMinor <= 0 {
		return domain.NewDecline(domain.DeclineInvalidAmount, "amount must be positive"), nil
	}

	if cmd.PayerAccountID == cmd.PayeeAccountID {
		return domain.NewDecline(domain.DeclineSameAccount, "cannot transfer to the same account"), nil
	}

	payer, err := repos.Accounts().Get(ctx, cmd.PayerAccountID)
	if err != nil {
		return nil, err
	}
	if payer == nil || !payer.IsActive() {
		return domain.NewDecline(domain.DeclineAccountNotFound, "payer account %s not found", cmd.PayerAccountID), nil
	}

	payee, err := repos.Accounts().Get(ctx, cmd.PayeeAccountID)
	if err != nil {
		return nil, err
	}
	if payee == nil || !payee.IsActive() {
		return domain.NewDecline(domain.DeclineAccountNotFound, "payee account %s not found", cmd.PayeeAccountID), nil
	}

	if payer.Currency != cmd.Amount.Currency || payee.Currency != cmd.Amount.Currency {
		return domain.NewDecline(domain.DeclineCurrencyMismatch,
			"currency %s does not match accounts (%s, %s)", cmd.Amount.Currency, payer.Currency, payee.Currency), nil
	}

	balance, err := repos.Balances().Get(ctx, cmd.PayerAccountID)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.AvailableMinor < cmd.Amount.AmountMinor {
		return domain.NewDecline(domain.DeclineInsufficientFunds, "insufficient funds"), nil
	}

	return nil, nil
}

// executeTransfer locks both balances in canonical order, re-checks
// funds under the lock, then posts the payment, the ledger pair and the
// versioned balance updates. The second funds check is mandatory: it
// defends against races between the plain read and the lock.
func (s *PaymentService) executeTransfer(ctx context.Context, repos domain.Repositories, payment *domain.Payment) (*domain.DeclineError, error) {
	first, second := payment.PayerAccountID, payment.PayeeAccountID
	if second < first {
		first, second = second, first
	}

	firstBalance, err := repos.Balances().GetForUpdate(ctx, first)
	if err != nil {
		return nil, err
	}
	secondBalance, err := repos.Balances().GetForUpdate(ctx, second)
	if err != nil {
		return nil, err
	}
	if firstBalance == nil || secondBalance == nil {
		return nil, domain.ErrBalanceNotFound
	}

	payerBalance, payeeBalance := firstBalance, secondBalance
	if first != payment.PayerAccountID {
		payerBalance, payeeBalance = secondBalance, firstBalance
	}

	if payerBalance.AvailableMinor < payment.Amount.AmountMinor {
		return domain.NewDecline(domain.DeclineInsufficientFunds, "insufficient funds"), nil
	}

	payerAfter := payerBalance.AvailableMinor - payment.Amount.AmountMinor
	payeeAfter := payeeBalance.AvailableMinor + payment.Amount.AmountMinor

	if err := repos.Payments().Add(ctx, payment); err != nil {
		return nil, err
	}

	debit := domain.NewLedgerEntry(payment.ID, payment.PayerAccountID, domain.EntryDebit, payment.Amount, payerAfter)
	credit := domain.NewLedgerEntry(payment.ID, payment.PayeeAccountID, domain.EntryCredit, payment.Amount, payeeAfter)

	if err := repos.Ledger().Add(ctx, debit); err != nil {
		return nil, err
	}
	if err := repos.Ledger().Add(ctx, credit); err != nil {
		return nil, err
	}

	if err := repos.Balances().UpdateAvailable(ctx, payment.PayerAccountID, payerAfter, payerBalance.Version); err != nil {
		return nil, err
	}
	if err := repos.Balances().UpdateAvailable(ctx, payment.PayeeAccountID, payeeAfter, payeeBalance.Version); err != nil {
		return nil, err
	}

	return nil, nil
}

// commitDecline records the decline as a committed outcome: a DECLINED
// payment row, a PaymentDeclined outbox record and a FAILED idempotency
// record carrying the decline snapshot. Balances and ledger stay
// untouched.
func (s *PaymentService) commitDecline(ctx context.Context, repos domain.Repositories, cmd AuthorizeCommand, decline *domain.DeclineError) (*AuthorizeResult, error) {
	payment := domain.NewDeclinedPayment(cmd.IdempotencyKey, cmd.PayerAccountID, cmd.PayeeAccountID, cmd.Amount, cmd.Description, decline)
	if err := repos.Payments().Add(ctx, payment); err != nil {
		return nil, err
	}

	outboxRec, err := domain.NewOutboxRecord(
		domain.AggregatePayment,
		payment.ID.String(),
		events.TypePaymentDeclined,
		events.PaymentDeclinedPayload{
			PaymentID:      payment.ID.String(),
			PayerAccountID: payment.PayerAccountID.String(),
			PayeeAccountID: payment.PayeeAccountID.String(),
			AmountMinor:    payment.Amount.AmountMinor,
			Currency:       payment.Amount.Currency,
			ErrorCode:      payment.ErrorCode,
			ErrorMessage:   payment.ErrorMessage,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := repos.Outbox().Append(ctx, outboxRec); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(responseSnapshot{
		PaymentID:    payment.ID.String(),
		Status:       string(domain.PaymentDeclined),
		ErrorCode:    payment.ErrorCode,
		ErrorMessage: payment.ErrorMessage,
		ProcessedAt:  payment.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.Idempotency().MarkFailed(ctx, cmd.IdempotencyKey, payment.ID, snapshot); err != nil {
		return nil, err
	}

	logging.InfoContext(ctx, "payment declined",
		"payment_id", payment.ID.String(),
		"error_code", payment.ErrorCode,
	)

	return &AuthorizeResult{
		PaymentID:    payment.ID,
		Status:       domain.PaymentDeclined,
		ErrorCode:    payment.ErrorCode,
		ErrorMessage: payment.ErrorMessage,
		ProcessedAt:  payment.CreatedAt,
	}, nil
}

// GetPayment retrieves a payment by id. Read-only; no transaction.
func (s *PaymentService) GetPayment(ctx context.Context, id types.PaymentID) (*domain.Payment, error) {
	p, err := s.repos.Payments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return p, nil
}

// GetAccountBalance retrieves the balance for an account. Read-only.
func (s *PaymentService) GetAccountBalance(ctx context.Context, id types.AccountID) (*domain.AccountBalance, error) {
	b, err := s.repos.Balances().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBalanceNotFound
	}
	return b, nil
}
