package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common currency codes
const (
	// CurrencyEUR is the ISO 4217 code for Euro.
	CurrencyEUR = "EUR"
	// CurrencyUSD is the ISO 4217 code for US Dollar.
	CurrencyUSD = "USD"
	// CurrencyGBP is the ISO 4217 code for British Pound.
	CurrencyGBP = "GBP"
)

// ErrCurrencyMismatch is returned when combining Money of different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ErrInvalidCurrency is returned when a currency code is not three uppercase letters.
var ErrInvalidCurrency = errors.New("currency must be a 3-letter uppercase ISO 4217 code")

// Money represents a monetary amount in integer minor units (cents).
// Amounts are never floating-point.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// NewMoney creates a new Money instance.
func NewMoney(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: currency}
}

// ValidCurrency reports whether the code is exactly three uppercase ASCII letters.
// Comparison elsewhere is byte-for-byte; no normalisation is applied.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// Add adds two Money values. Returns an error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return NewMoney(m.AmountMinor+other.AmountMinor, m.Currency), nil
}

// Subtract subtracts other from m. Returns an error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return NewMoney(m.AmountMinor-other.AmountMinor, m.Currency), nil
}

// IsPositive returns true if amount > 0.
func (m Money) IsPositive() bool {
	return m.AmountMinor > 0
}

// IsNegative returns true if amount < 0.
func (m Money) IsNegative() bool {
	return m.AmountMinor < 0
}

// String returns a human-readable representation in major units,
// e.g. "50.00 USD" for 5000 minor units.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.NewFromInt(m.AmountMinor).Shift(-2).StringFixed(2), m.Currency)
}
