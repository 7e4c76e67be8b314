package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when two Money values with different
// currency codes are combined.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// DefaultCurrency is used when a school has no explicit currency configured.
const DefaultCurrency = "USD"

// Money is a fixed-point currency amount held as integer minor units
// (cents). All fee arithmetic goes through this type; amounts are never
// represented as floating point.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney builds a Money value from minor units.
func NewMoney(minor int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: minor, Currency: currency}
}

// Zero returns the zero amount in m's currency.
func (m Money) Zero() Money {
	return Money{Amount: 0, Currency: m.Currency}
}

// Add returns m + o, failing on mixed currencies.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Sub returns m - o, failing on mixed currencies. The result may be
// negative; callers guarding a balance must check IsNegative themselves.
func (m Money) Sub(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}, nil
}

// ApplyPercent returns percent% of m, rounded to the nearest minor unit
// with banker's rounding so repeated discount application does not drift
// systematically up or down across many students.
func (m Money) ApplyPercent(percent float64) Money {
	if percent == 0 {
		return m.Zero()
	}
	d := decimal.NewFromInt(m.Amount).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100))
	return Money{Amount: d.RoundBank(0).IntPart(), Currency: m.Currency}
}

// ProrateFraction returns m × num/den, rounded with banker's rounding.
// A zero or negative denominator returns the full amount.
func (m Money) ProrateFraction(num, den int64) Money {
	if den <= 0 {
		return m
	}
	if num <= 0 {
		return m.Zero()
	}
	if num >= den {
		return m
	}
	d := decimal.NewFromInt(m.Amount).
		Mul(decimal.NewFromInt(num)).
		Div(decimal.NewFromInt(den))
	return Money{Amount: d.RoundBank(0).IntPart(), Currency: m.Currency}
}

// Min returns the smaller of m and o, failing on mixed currencies.
func (m Money) Min(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: min(%s, %s)", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	if o.Amount < m.Amount {
		return o, nil
	}
	return m, nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// String renders the amount in major units for logs and receipts.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.New(m.Amount, -2).StringFixed(2), m.Currency)
}
