// Package money formats ledger amounts for people. Arithmetic stays on
// shopspring/decimal; this package converts to integer minor units through
// go-money so every summary and alert renders currencies the same way.
package money

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes used by the ledger (ISO-4217)
const (
	SGD = "SGD" // Singapore Dollar, the default
	USD = "USD"
	EUR = "EUR"
	MYR = "MYR"
	JPY = "JPY" // no decimal places
)

// DefaultCurrency is used when a configured code is unknown.
const DefaultCurrency = SGD

// Money is a monetary value with its currency.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, normalizeCode(currencyCode))}
}

// NewFromDecimal rounds amount to the currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	code := normalizeCode(currencyCode)
	currency := money.GetCurrency(code)
	cents := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return New(cents, code)
}

// NewFromString parses a plain amount such as "1,234.56".
func NewFromString(amount, currencyCode string) (*Money, error) {
	amount = strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return NewFromDecimal(d, currencyCode), nil
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return New(0, DefaultCurrency)
	}
	return &Money{m: m.m.Absolute()}
}

// Display renders with the currency symbol, e.g. "$1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "$0.00"
	}
	return m.m.Display()
}

// String returns the plain decimal amount, e.g. "1234.56".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	fraction := m.m.Currency().Fraction
	return m.ToDecimal().StringFixed(int32(fraction))
}

// Code renders the amount prefixed with its currency code, e.g. "SGD 12.50".
// Bank notifications use this form, so summaries do too.
func (m *Money) Code() string {
	if m == nil || m.m == nil {
		return DefaultCurrency + " 0.00"
	}
	return m.Currency() + " " + m.String()
}

// ToDecimal converts back to a decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	fraction := m.m.Currency().Fraction
	return decimal.New(m.m.Amount(), -int32(fraction))
}

// FormatCode renders amount as "<CODE> <magnitude>". The sign is dropped:
// callers phrase direction in words ("Added", "spent", "received").
func FormatCode(amount decimal.Decimal, currencyCode string) string {
	return NewFromDecimal(amount, currencyCode).Abs().Code()
}

// FormatSigned renders amount as "<CODE> <signed amount>", e.g. "SGD -620.00".
func FormatSigned(amount decimal.Decimal, currencyCode string) string {
	return NewFromDecimal(amount, currencyCode).Code()
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}
