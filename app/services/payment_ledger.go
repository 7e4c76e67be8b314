package services

import (
	"fmt"
	"log"
	"time"

	"greenschool/app/models"
)

// casAttempts bounds the optimistic-lock retry loop. Conflicts beyond
// this surface as ErrConflict for the caller to retry.
const casAttempts = 3

// PaymentLedger records payments and refunds against fee snapshots. The
// overpayment check and the balance update are guarded by the snapshot's
// version column: two concurrent records against the same balance cannot
// both pass the check against a stale balance, because the second
// append's compare-and-swap fails and the attempt re-reads.
type PaymentLedger struct {
	Snapshots SnapshotStore
	Payments  PaymentStore
	Events    EventSink
}

// Record appends a payment to the snapshot's ledger and recomputes the
// balance and status. Overpayment is always rejected; a caller holding
// more money than the balance must split it into a partial payment plus
// an explicit refund/credit workflow.
func (l *PaymentLedger) Record(schoolID, snapshotID string, amount int64, method models.PaymentMethod, date time.Time, recordedBy *string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	if date.IsZero() {
		date = time.Now()
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		snap, err := l.Snapshots.Get(schoolID, snapshotID)
		if err != nil {
			return nil, err
		}
		if snap.IsWaived() {
			return nil, fmt.Errorf("%w: fee is waived", ErrValidation)
		}
		if !snap.IsActive() {
			return nil, fmt.Errorf("%w: snapshot superseded", ErrValidation)
		}
		if amount > snap.BalanceDue {
			return nil, ErrOverpayment
		}

		seq, err := l.Payments.NextReceiptSeq(schoolID, date.Year())
		if err != nil {
			return nil, err
		}

		p := &models.Payment{
			SchoolID:      schoolID,
			SnapshotID:    snap.ID,
			StudentID:     snap.StudentID,
			Amount:        amount,
			Currency:      snap.Currency,
			Method:        method,
			PaymentDate:   date,
			ReceiptNumber: fmt.Sprintf("RCPT-%d-%06d", date.Year(), seq),
			Status:        models.PaymentCompleted,
			RecordedBy:    recordedBy,
		}

		snap.ApplyLedgerTotals(snap.TotalPaid + amount)
		if snap.BalanceDue < 0 {
			// Unreachable past the overpayment guard.
			return nil, &InvariantError{Detail: fmt.Sprintf(
				"negative balance %d on snapshot %s", snap.BalanceDue, snap.ID)}
		}

		ok, err := l.Payments.AppendAndUpdate(p, snap)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race; re-read and re-check against fresh totals.
			continue
		}

		if l.Events != nil {
			l.Events.Emit(schoolID, models.EventPaymentRecorded, map[string]interface{}{
				"payment_id":     p.ID,
				"snapshot_id":    snap.ID,
				"student_id":     snap.StudentID,
				"amount":         p.Amount,
				"currency":       p.Currency,
				"receipt_number": p.ReceiptNumber,
				"balance_due":    snap.BalanceDue,
				"status":         snap.Status,
			})
		}
		return p, nil
	}
	return nil, ErrConflict
}

// Refund appends a linked negative-effect entry against an earlier
// payment. The refund amount is capped by the payment's remaining net
// contribution, and the snapshot status may move backward (paid to
// partial, partial to pending).
func (l *PaymentLedger) Refund(schoolID, paymentID string, amount int64, reason string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	original, err := l.Payments.Get(schoolID, paymentID)
	if err != nil {
		return nil, err
	}
	if original.IsRefund() {
		return nil, fmt.Errorf("%w: cannot refund a refund entry", ErrValidation)
	}
	if original.Status != models.PaymentCompleted && original.Status != models.PaymentRefunded {
		return nil, fmt.Errorf("%w: payment is %s", ErrValidation, original.Status)
	}

	refunded, err := l.Payments.RefundedTotal(schoolID, paymentID)
	if err != nil {
		return nil, err
	}
	remaining := original.Amount - refunded
	if amount > remaining {
		return nil, fmt.Errorf("%w: refund %d exceeds remaining contribution %d", ErrInvalidAmount, amount, remaining)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		snap, err := l.Snapshots.Get(schoolID, original.SnapshotID)
		if err != nil {
			return nil, err
		}
		if snap.IsWaived() {
			return nil, fmt.Errorf("%w: fee is waived", ErrValidation)
		}
		if !snap.IsActive() {
			return nil, fmt.Errorf("%w: snapshot superseded", ErrValidation)
		}

		newPaid := snap.TotalPaid - amount
		if newPaid < 0 {
			log.Printf("invariant: refund of %d would drive total_paid negative on snapshot %s", amount, snap.ID)
			return nil, &InvariantError{Detail: "refund exceeds total paid"}
		}

		seq, err := l.Payments.NextReceiptSeq(schoolID, time.Now().Year())
		if err != nil {
			return nil, err
		}

		r := &models.Payment{
			SchoolID:      schoolID,
			SnapshotID:    snap.ID,
			StudentID:     snap.StudentID,
			Amount:        amount,
			Currency:      snap.Currency,
			Method:        original.Method,
			PaymentDate:   time.Now(),
			ReceiptNumber: fmt.Sprintf("RFND-%d-%06d", time.Now().Year(), seq),
			Status:        models.PaymentCompleted,
			RefundOf:      &original.ID,
			Reason:        &reason,
		}

		snap.ApplyLedgerTotals(newPaid)

		ok, err := l.Payments.AppendAndUpdate(r, snap)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if amount == remaining {
			if err := l.Payments.MarkRefunded(schoolID, original.ID); err != nil {
				log.Printf("failed to mark payment %s refunded: %v", original.ID, err)
			}
		}
		return r, nil
	}
	return nil, ErrConflict
}

// Waive freezes the snapshot in the waived state. The balance stays on
// the row for audit; it is not zeroed and the snapshot is not deleted.
func (l *PaymentLedger) Waive(schoolID, snapshotID, reason string) (*models.StudentFeeSnapshot, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		snap, err := l.Snapshots.Get(schoolID, snapshotID)
		if err != nil {
			return nil, err
		}
		if snap.IsWaived() {
			return snap, nil
		}

		snap.Status = models.FeeWaived
		ok, err := l.Snapshots.UpdateCAS(snap)
		if err != nil {
			return nil, err
		}
		if ok {
			log.Printf("fee snapshot %s waived: %s", snap.ID, reason)
			return snap, nil
		}
	}
	return nil, ErrConflict
}

// Ledger lists the snapshot's payment and refund entries.
func (l *PaymentLedger) Ledger(schoolID, snapshotID string) ([]*models.Payment, error) {
	if _, err := l.Snapshots.Get(schoolID, snapshotID); err != nil {
		return nil, err
	}
	return l.Payments.ListBySnapshot(schoolID, snapshotID)
}

// RevenueReport summarizes collections for a date range plus the
// school's current outstanding position.
type RevenueReport struct {
	From               time.Time `json:"from"`
	To                 time.Time `json:"to"`
	TotalCollected     int64     `json:"total_collected"`
	TotalRefunded      int64     `json:"total_refunded"`
	NetRevenue         int64     `json:"net_revenue"`
	PaymentCount       int       `json:"payment_count"`
	RefundCount        int       `json:"refund_count"`
	OutstandingBalance int64     `json:"outstanding_balance"`
	OverdueCount       int       `json:"overdue_count"`
}

// Revenue builds the report for one school.
func (l *PaymentLedger) Revenue(schoolID string, from, to time.Time) (*RevenueReport, error) {
	collected, refunded, payments, refunds, err := l.Payments.CollectedBetween(schoolID, from, to)
	if err != nil {
		return nil, err
	}
	outstanding, overdue, err := l.Snapshots.OutstandingTotals(schoolID)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{
		From:               from,
		To:                 to,
		TotalCollected:     collected,
		TotalRefunded:      refunded,
		NetRevenue:         collected - refunded,
		PaymentCount:       payments,
		RefundCount:        refunds,
		OutstandingBalance: outstanding,
		OverdueCount:       overdue,
	}, nil
}
