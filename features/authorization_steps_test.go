package features

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/application"
	"ledgerpay/internal/payment/domain"
	"ledgerpay/internal/payment/infrastructure/memory"
)

type authorizationState struct {
	dataStore *memory.DataStore
	service   *application.PaymentService
	accounts  map[string]types.AccountID

	firstResult *application.AuthorizeResult
	lastResult  *application.AuthorizeResult
	lastErr     error
}

func InitializeScenario(sc *godog.ScenarioContext) {
	state := &authorizationState{}

	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		state.dataStore = memory.NewDataStore()
		state.service = application.NewPaymentService(state.dataStore, 24*time.Hour)
		state.accounts = map[string]types.AccountID{}
		state.firstResult = nil
		state.lastResult = nil
		state.lastErr = nil
		return ctx, nil
	})

	sc.Step(`^an account "([^"]*)" with (\d+\.\d{2}) ([A-Z]{3}) available$`, state.anAccountWithAvailable)
	sc.Step(`^"([^"]*)" pays "([^"]*)" (\d+\.\d{2}) ([A-Z]{3}) with idempotency key "([^"]*)"$`, state.pays)
	sc.Step(`^the payment is authorized$`, state.thePaymentIsAuthorized)
	sc.Step(`^the payment is declined with code "([^"]*)"$`, state.thePaymentIsDeclinedWithCode)
	sc.Step(`^the payment is a duplicate of the first$`, state.thePaymentIsADuplicateOfTheFirst)
	sc.Step(`^"([^"]*)" has (\d+\.\d{2}) ([A-Z]{3}) available$`, state.hasAvailable)
	sc.Step(`^the ledger holds a debit and a credit of (\d+\.\d{2}) ([A-Z]{3})$`, state.theLedgerHoldsDebitAndCredit)
}

func minorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	return d.Shift(2).IntPart(), nil
}

// accountID resolves a scenario name to an account id. Names never
// seeded resolve to a fresh id that no account owns.
func (s *authorizationState) accountID(name string) types.AccountID {
	if id, ok := s.accounts[name]; ok {
		return id
	}
	id := types.NewAccountID()
	s.accounts[name] = id
	return id
}

func (s *authorizationState) anAccountWithAvailable(name, amount, currency string) error {
	minor, err := minorUnits(amount)
	if err != nil {
		return err
	}
	id := types.NewAccountID()
	now := time.Now().UTC()
	s.dataStore.SeedAccount(&domain.Account{
		ID:        id,
		OwnerID:   "owner-" + name,
		Currency:  currency,
		Status:    domain.AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.dataStore.SeedBalance(&domain.AccountBalance{
		AccountID:      id,
		AvailableMinor: minor,
		Currency:       currency,
		Version:        1,
		UpdatedAt:      now,
	})
	s.accounts[name] = id
	return nil
}

func (s *authorizationState) pays(payer, payee, amount, currency, key string) error {
	minor, err := minorUnits(amount)
	if err != nil {
		return err
	}
	res, err := s.service.Authorize(context.Background(), application.AuthorizeCommand{
		IdempotencyKey: key,
		PayerAccountID: s.accountID(payer),
		PayeeAccountID: s.accountID(payee),
		Amount:         types.NewMoney(minor, currency),
	})
	s.lastResult = res
	s.lastErr = err
	if s.firstResult == nil {
		s.firstResult = res
	}
	return nil
}

func (s *authorizationState) thePaymentIsAuthorized() error {
	if s.lastErr != nil {
		return fmt.Errorf("authorization failed: %w", s.lastErr)
	}
	if s.lastResult.Status != domain.PaymentAuthorized {
		return fmt.Errorf("expected AUTHORIZED, got %s (%s)", s.lastResult.Status, s.lastResult.ErrorCode)
	}
	return nil
}

func (s *authorizationState) thePaymentIsDeclinedWithCode(code string) error {
	if s.lastErr != nil {
		return fmt.Errorf("authorization failed: %w", s.lastErr)
	}
	if s.lastResult.Status != domain.PaymentDeclined {
		return fmt.Errorf("expected DECLINED, got %s", s.lastResult.Status)
	}
	if s.lastResult.ErrorCode != code {
		return fmt.Errorf("expected decline code %s, got %s", code, s.lastResult.ErrorCode)
	}
	return nil
}

func (s *authorizationState) thePaymentIsADuplicateOfTheFirst() error {
	if s.lastErr != nil {
		return fmt.Errorf("authorization failed: %w", s.lastErr)
	}
	if s.lastResult.Status != domain.PaymentDuplicate {
		return fmt.Errorf("expected DUPLICATE, got %s", s.lastResult.Status)
	}
	if s.firstResult == nil || s.lastResult.PaymentID != s.firstResult.PaymentID {
		return fmt.Errorf("duplicate must carry the original payment id")
	}
	return nil
}

func (s *authorizationState) hasAvailable(name, amount, currency string) error {
	minor, err := minorUnits(amount)
	if err != nil {
		return err
	}
	balance, err := s.dataStore.Balances().Get(context.Background(), s.accountID(name))
	if err != nil {
		return fmt.Errorf("reading balance for %s: %w", name, err)
	}
	if balance == nil {
		return fmt.Errorf("no balance for %s", name)
	}
	if balance.AvailableMinor != minor || balance.Currency != currency {
		return fmt.Errorf("expected %s %s available, got %d %s",
			amount, currency, balance.AvailableMinor, balance.Currency)
	}
	return nil
}

func (s *authorizationState) theLedgerHoldsDebitAndCredit(amount, currency string) error {
	minor, err := minorUnits(amount)
	if err != nil {
		return err
	}
	entries := s.dataStore.LedgerEntries()
	var debits, credits int
	for _, e := range entries {
		if e.Amount.AmountMinor != minor || e.Amount.Currency != currency {
			return fmt.Errorf("unexpected ledger amount %d %s", e.Amount.AmountMinor, e.Amount.Currency)
		}
		switch e.EntryType {
		case domain.EntryDebit:
			debits++
		case domain.EntryCredit:
			credits++
		}
	}
	if debits != 1 || credits != 1 {
		return fmt.Errorf("expected 1 debit and 1 credit, got %d and %d", debits, credits)
	}
	return nil
}
