package services_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenschool/app/models"
	"greenschool/app/services"
)

// persistSnapshot runs the calculator end to end and returns the stored
// snapshot the ledger operates on.
func persistSnapshot(t *testing.T, f *fixture) *models.StudentFeeSnapshot {
	t.Helper()
	guardian := "guardian-1"
	f.addStudent("S001", &guardian, "2020-01-10")
	second := f.addStudent("S002", &guardian, "2022-01-10")

	snap, err := f.calculator.CalculateAndPersist(f.calcInput(second.ID))
	require.NoError(t, err)
	require.Equal(t, int64(8100), snap.BalanceDue)
	return snap
}

func TestRecordPartialThenFull(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2025-000001", p.ReceiptNumber)
	assert.Equal(t, models.PaymentCompleted, p.Status)

	after, err := f.store.Snapshots().Get(testSchool, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), after.TotalPaid)
	assert.Equal(t, int64(5100), after.BalanceDue)
	assert.Equal(t, models.FeePartial, after.Status)

	_, err = f.ledger.Record(testSchool, snap.ID, 5100, models.MethodMobileMoney, date("2025-04-01"), nil)
	require.NoError(t, err)

	after, err = f.store.Snapshots().Get(testSchool, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.BalanceDue)
	assert.Equal(t, models.FeePaid, after.Status)
	assert.Equal(t, 2, f.eventCount(models.EventPaymentRecorded))
}

func TestRecordRejectsOverpayment(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	_, err := f.ledger.Record(testSchool, snap.ID, snap.BalanceDue+1, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrOverpayment)

	// Exact balance settles the fee.
	_, err = f.ledger.Record(testSchool, snap.ID, snap.BalanceDue, models.MethodCash, time.Time{}, nil)
	require.NoError(t, err)

	after, _ := f.store.Snapshots().Get(testSchool, snap.ID)
	assert.Equal(t, models.FeePaid, after.Status)

	// Any further payment is now an overpayment.
	_, err = f.ledger.Record(testSchool, snap.ID, 1, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrOverpayment)
}

func TestRecordValidation(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	_, err := f.ledger.Record(testSchool, snap.ID, 0, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	_, err = f.ledger.Record(testSchool, snap.ID, -50, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	_, err = f.ledger.Record(testSchool, snap.ID, 100, "goats", time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.ledger.Record(testSchool, "no-such-snapshot", 100, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrSnapshotNotFound)
}

func TestConcurrentHalfPayments(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)
	half := snap.BalanceDue / 2 // 4050

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Record(testSchool, snap.ID, half, models.MethodCash, time.Time{}, nil)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	after, err := f.store.Snapshots().Get(testSchool, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.BalanceDue)
	assert.Equal(t, models.FeePaid, after.Status)
	assert.Equal(t, 2*half, after.TotalPaid)
}

func TestConcurrentFullPaymentsOnlyOneSucceeds(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Record(testSchool, snap.ID, snap.BalanceDue, models.MethodCash, time.Time{}, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, services.ErrOverpayment)
		}
	}
	assert.Equal(t, 1, succeeded)

	after, _ := f.store.Snapshots().Get(testSchool, snap.ID)
	assert.Equal(t, int64(0), after.BalanceDue)
	assert.Equal(t, snap.BalanceDue, after.TotalPaid)
}

func TestReceiptNumbersAreUnique(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		p, err := f.ledger.Record(testSchool, snap.ID, 100, models.MethodCash, date("2025-03-01"), nil)
		require.NoError(t, err)
		assert.False(t, seen[p.ReceiptNumber], "duplicate receipt %s", p.ReceiptNumber)
		seen[p.ReceiptNumber] = true
		assert.Equal(t, fmt.Sprintf("RCPT-2025-%06d", i+1), p.ReceiptNumber)
	}
}

func TestRefundMovesStatusBackward(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 8100, models.MethodBankTransfer, date("2025-03-01"), nil)
	require.NoError(t, err)

	refund, err := f.ledger.Refund(testSchool, p.ID, 1000, "duplicate charge")
	require.NoError(t, err)
	assert.True(t, refund.IsRefund())
	assert.Contains(t, refund.ReceiptNumber, "RFND-")

	after, _ := f.store.Snapshots().Get(testSchool, snap.ID)
	assert.Equal(t, int64(7100), after.TotalPaid)
	assert.Equal(t, int64(1000), after.BalanceDue)
	assert.Equal(t, models.FeePartial, after.Status)
}

func TestRefundCappedByOriginalPayment(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)

	_, err = f.ledger.Refund(testSchool, p.ID, 3001, "too generous")
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	// Partial refunds draw down the remaining contribution.
	_, err = f.ledger.Refund(testSchool, p.ID, 2000, "partial")
	require.NoError(t, err)
	_, err = f.ledger.Refund(testSchool, p.ID, 1500, "exceeds remainder")
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	_, err = f.ledger.Refund(testSchool, p.ID, 1000, "final")
	require.NoError(t, err)

	// Fully refunded payments are flagged and refuse further refunds.
	original, err := f.store.Payments().Get(testSchool, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, original.Status)
}

func TestRefundOfRefundRejected(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)
	refund, err := f.ledger.Refund(testSchool, p.ID, 1000, "oops")
	require.NoError(t, err)

	_, err = f.ledger.Refund(testSchool, refund.ID, 500, "meta")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestWaiveFreezesSnapshot(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	waived, err := f.ledger.Waive(testSchool, snap.ID, "family hardship")
	require.NoError(t, err)
	assert.Equal(t, models.FeeWaived, waived.Status)
	// The balance stays on the row for audit.
	assert.Equal(t, int64(8100), waived.BalanceDue)

	// Waiving again is a no-op, not an error.
	again, err := f.ledger.Waive(testSchool, snap.ID, "again")
	require.NoError(t, err)
	assert.Equal(t, models.FeeWaived, again.Status)

	// Payments against a waived fee are rejected.
	_, err = f.ledger.Record(testSchool, snap.ID, 100, models.MethodCash, time.Time{}, nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestLedgerListing(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 5000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)
	_, err = f.ledger.Refund(testSchool, p.ID, 1000, "adjustment")
	require.NoError(t, err)

	entries, err := f.ledger.Ledger(testSchool, snap.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.ledger.Ledger(testSchool, "missing")
	assert.ErrorIs(t, err, services.ErrSnapshotNotFound)
}

func TestRevenueReport(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 5000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)
	_, err = f.ledger.Refund(testSchool, p.ID, 1000, "adjustment")
	require.NoError(t, err)

	// Refund entries are dated at recording time, so the range runs
	// through now.
	report, err := f.ledger.Revenue(testSchool, date("2025-01-01"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), report.TotalCollected)
	assert.Equal(t, int64(1000), report.TotalRefunded)
	assert.Equal(t, int64(4000), report.NetRevenue)
	assert.Equal(t, 1, report.PaymentCount)
	assert.Equal(t, 1, report.RefundCount)
	assert.Equal(t, int64(4100), report.OutstandingBalance)
}

func TestRevenueReportFullRefundNetsZero(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)
	_, err = f.ledger.Refund(testSchool, p.ID, 3000, "enrollment withdrawn")
	require.NoError(t, err)

	// The fully refunded original flips to refunded but keeps counting
	// in the collected sum, so the refund offsets it to zero rather
	// than dragging the range negative.
	report, err := f.ledger.Revenue(testSchool, date("2025-01-01"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), report.TotalCollected)
	assert.Equal(t, int64(3000), report.TotalRefunded)
	assert.Equal(t, int64(0), report.NetRevenue)
	assert.Equal(t, 1, report.PaymentCount)
	assert.Equal(t, 1, report.RefundCount)
}

func TestRefundRejectedOnSupersededSnapshot(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	p, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)

	// Recalculating supersedes the snapshot the payment was taken
	// against; refunds must target the live row, not the frozen one.
	_, err = f.calculator.CalculateAndPersist(f.calcInput(snap.StudentID))
	require.NoError(t, err)

	_, err = f.ledger.Refund(testSchool, p.ID, 1000, "late refund")
	assert.ErrorIs(t, err, services.ErrValidation)
}
