package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFeeStatus(t *testing.T) {
	tests := []struct {
		name      string
		totalDue  int64
		totalPaid int64
		want      FeeStatus
	}{
		{"nothing paid", 8100, 0, FeePending},
		{"partially paid", 8100, 4000, FeePartial},
		{"fully paid", 8100, 8100, FeePaid},
		{"zero due is paid", 0, 0, FeePaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveFeeStatus(tt.totalDue, tt.totalPaid))
		})
	}
}

func TestApplyLedgerTotals(t *testing.T) {
	snap := &StudentFeeSnapshot{TotalAmountDue: 8100, Status: FeePending}

	snap.ApplyLedgerTotals(4000)
	assert.Equal(t, int64(4000), snap.TotalPaid)
	assert.Equal(t, int64(4100), snap.BalanceDue)
	assert.Equal(t, FeePartial, snap.Status)

	snap.ApplyLedgerTotals(8100)
	assert.Equal(t, int64(0), snap.BalanceDue)
	assert.Equal(t, FeePaid, snap.Status)

	// Moving backward (refund) re-derives correctly.
	snap.ApplyLedgerTotals(7100)
	assert.Equal(t, int64(1000), snap.BalanceDue)
	assert.Equal(t, FeePartial, snap.Status)
}

func TestSnapshotActivity(t *testing.T) {
	snap := &StudentFeeSnapshot{}
	assert.True(t, snap.IsActive())

	other := "other-id"
	snap.SupersededBy = &other
	assert.False(t, snap.IsActive())
}

func TestFeeStructureAmountFor(t *testing.T) {
	fs := &FeeStructure{
		Currency:      "USD",
		YearlyAmount:  10000,
		MonthlyAmount: 1000,
	}

	m, ok := fs.AmountFor(FrequencyYearly)
	assert.True(t, ok)
	assert.Equal(t, int64(10000), m.Amount)

	// Weekly billing is not configured for this structure.
	_, ok = fs.AmountFor(FrequencyWeekly)
	assert.False(t, ok)
}

func TestSiblingPercentForTier(t *testing.T) {
	fs := &FeeStructure{
		Sibling2DiscountPercent:     10,
		Sibling3DiscountPercent:     15,
		Sibling4PlusDiscountPercent: 20,
		ApplySiblingToAll:           true,
	}

	assert.Equal(t, float64(0), fs.SiblingPercentForTier(0))
	assert.Equal(t, float64(10), fs.SiblingPercentForTier(1))
	assert.Equal(t, float64(15), fs.SiblingPercentForTier(2))
	assert.Equal(t, float64(20), fs.SiblingPercentForTier(3))
	assert.Equal(t, float64(20), fs.SiblingPercentForTier(7))

	// With the flag off every younger sibling gets the tier-2 percent.
	fs.ApplySiblingToAll = false
	assert.Equal(t, float64(10), fs.SiblingPercentForTier(3))
	assert.Equal(t, float64(0), fs.SiblingPercentForTier(0))
}
