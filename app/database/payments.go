package database

import (
	"database/sql"
	"fmt"
	"time"

	"greenschool/app/models"
	"greenschool/app/services"
)

// PaymentDB is the Postgres-backed payment ledger store.
type PaymentDB struct {
	DB *sql.DB
}

const paymentColumns = `id, school_id, snapshot_id, student_id, amount, currency,
	method, payment_date, receipt_number, status, refund_of, reason, recorded_by,
	created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID, &p.SchoolID, &p.SnapshotID, &p.StudentID, &p.Amount, &p.Currency,
		&p.Method, &p.PaymentDate, &p.ReceiptNumber, &p.Status, &p.RefundOf, &p.Reason, &p.RecordedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a ledger entry by id, school-scoped.
func (d *PaymentDB) Get(schoolID, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE school_id = $1 AND id = $2`

	p, err := scanPayment(d.DB.QueryRow(query, schoolID, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %v", err)
	}
	return p, nil
}

// ListBySnapshot returns the snapshot's ledger, oldest first.
func (d *PaymentDB) ListBySnapshot(schoolID, snapshotID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE school_id = $1 AND snapshot_id = $2
			  ORDER BY created_at`

	rows, err := d.DB.Query(query, schoolID, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

// RefundedTotal sums completed refund entries against a payment.
func (d *PaymentDB) RefundedTotal(schoolID, paymentID string) (int64, error) {
	var total int64
	err := d.DB.QueryRow(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE school_id = $1 AND refund_of = $2 AND status = 'completed'`,
		schoolID, paymentID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum refunds: %v", err)
	}
	return total, nil
}

// NextReceiptSeq atomically claims the next receipt number for
// (school, year). The upsert-increment is a single statement, so two
// concurrent claims can never see the same value.
func (d *PaymentDB) NextReceiptSeq(schoolID string, year int) (int64, error) {
	var value int64
	err := d.DB.QueryRow(
		`INSERT INTO receipt_sequences (school_id, year, value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (school_id, year)
		 DO UPDATE SET value = receipt_sequences.value + 1
		 RETURNING value`,
		schoolID, year).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to claim receipt sequence: %v", err)
	}
	return value, nil
}

// AppendAndUpdate inserts the ledger entry and applies the snapshot's
// new totals in one transaction, guarded by the snapshot version. On a
// version conflict nothing is written and false is returned.
func (d *PaymentDB) AppendAndUpdate(p *models.Payment, snap *models.StudentFeeSnapshot) (bool, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ok, err := updateSnapshotCAS(tx, snap)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	query := `INSERT INTO payments (
				school_id, snapshot_id, student_id, amount, currency,
				method, payment_date, receipt_number, status, refund_of, reason, recorded_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id, created_at, updated_at`

	err = tx.QueryRow(query,
		p.SchoolID, p.SnapshotID, p.StudentID, p.Amount, p.Currency,
		p.Method, p.PaymentDate, p.ReceiptNumber, p.Status, p.RefundOf, p.Reason, p.RecordedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	snap.Version++
	return true, nil
}

// MarkRefunded flips a fully-refunded payment's status.
func (d *PaymentDB) MarkRefunded(schoolID, paymentID string) error {
	result, err := d.DB.Exec(
		`UPDATE payments SET status = 'refunded', updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND refund_of IS NULL`,
		schoolID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %v", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return services.ErrPaymentNotFound
	}
	return nil
}

// CollectedBetween sums payments and refunds dated in range. Originals
// flipped to 'refunded' still count in the collected sum; their refund
// entries offset them, so a fully refunded payment nets to zero instead
// of going negative.
func (d *PaymentDB) CollectedBetween(schoolID string, from, to time.Time) (int64, int64, int, int, error) {
	var collected, refunded int64
	var payments, refunds int
	err := d.DB.QueryRow(
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE refund_of IS NULL), 0),
			COALESCE(SUM(amount) FILTER (WHERE refund_of IS NOT NULL), 0),
			COUNT(*) FILTER (WHERE refund_of IS NULL),
			COUNT(*) FILTER (WHERE refund_of IS NOT NULL)
		 FROM payments
		 WHERE school_id = $1 AND status IN ('completed', 'refunded')
		   AND payment_date >= $2 AND payment_date <= $3`,
		schoolID, from, to).Scan(&collected, &refunded, &payments, &refunds)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to build revenue totals: %v", err)
	}
	return collected, refunded, payments, refunds, nil
}
