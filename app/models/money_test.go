package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyAddSub(t *testing.T) {
	a := NewMoney(1500, "USD")
	b := NewMoney(500, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), diff.Amount)

	// Sub may go negative; the caller owns the guard.
	neg, err := b.Sub(a)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
	assert.Equal(t, int64(-1000), neg.Amount)
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := NewMoney(100, "USD")
	ugx := NewMoney(100, "UGX")

	_, err := usd.Add(ugx)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Sub(ugx)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Min(ugx)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneyApplyPercent(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		percent float64
		want    int64
	}{
		{"ten percent", 10000, 10, 1000},
		{"zero percent", 10000, 0, 0},
		{"hundred percent", 10000, 100, 10000},
		{"fractional percent", 10000, 12.5, 1250},
		// Banker's rounding: .5 goes to the even neighbour.
		{"half rounds to even down", 125, 10, 12},  // 12.5 -> 12
		{"half rounds to even up", 135, 10, 14},    // 13.5 -> 14
		{"non-half rounds normally", 126, 10, 13},  // 12.6 -> 13
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMoney(tt.amount, "USD").ApplyPercent(tt.percent)
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestMoneyProrateFraction(t *testing.T) {
	m := NewMoney(10000, "USD")

	assert.Equal(t, int64(5000), m.ProrateFraction(1, 2).Amount)
	assert.Equal(t, int64(3333), m.ProrateFraction(1, 3).Amount)
	// num >= den charges in full, never scales above the fee.
	assert.Equal(t, int64(10000), m.ProrateFraction(5, 3).Amount)
	assert.Equal(t, int64(10000), m.ProrateFraction(3, 3).Amount)
	// Degenerate denominators fall back to the full amount.
	assert.Equal(t, int64(10000), m.ProrateFraction(1, 0).Amount)
	assert.Equal(t, int64(0), m.ProrateFraction(0, 10).Amount)
}

func TestMoneyMin(t *testing.T) {
	a := NewMoney(300, "USD")
	b := NewMoney(200, "USD")

	got, err := a.Min(b)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Amount)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "123.45 USD", NewMoney(12345, "USD").String())
	assert.Equal(t, "0.05 UGX", NewMoney(5, "UGX").String())
}
