package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"greenschool/app/models"
	"greenschool/app/services"
)

// SnapshotDB is the Postgres-backed snapshot store.
type SnapshotDB struct {
	DB *sql.DB
}

const snapshotColumns = `id, school_id, student_id, academic_year_id, fee_structure_id, bursary_id,
	payment_frequency, currency,
	base_tuition, activity_fees, material_fees, other_fees,
	payment_discount, sibling_discount, sibling_tier, bursary_amount,
	total_before_discounts, total_discounts, total_amount_due,
	total_paid, balance_due, status, due_date, last_overdue_notified,
	version, superseded_by, created_at, updated_at, deleted_at`

func scanSnapshot(row interface{ Scan(...interface{}) error }) (*models.StudentFeeSnapshot, error) {
	s := &models.StudentFeeSnapshot{}
	err := row.Scan(
		&s.ID, &s.SchoolID, &s.StudentID, &s.AcademicYearID, &s.FeeStructureID, &s.BursaryID,
		&s.PaymentFrequency, &s.Currency,
		&s.BaseTuition, &s.ActivityFees, &s.MaterialFees, &s.OtherFees,
		&s.PaymentDiscount, &s.SiblingDiscount, &s.SiblingTier, &s.BursaryAmount,
		&s.TotalBeforeDiscounts, &s.TotalDiscounts, &s.TotalAmountDue,
		&s.TotalPaid, &s.BalanceDue, &s.Status, &s.DueDate, &s.LastOverdueNotified,
		&s.Version, &s.SupersededBy, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a snapshot by id, school-scoped.
func (d *SnapshotDB) Get(schoolID, id string) (*models.StudentFeeSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
			  FROM student_fee_snapshots
			  WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`

	snap, err := scanSnapshot(d.DB.QueryRow(query, schoolID, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %v", err)
	}
	return snap, nil
}

// GetActive returns the live snapshot for (school, student, year).
func (d *SnapshotDB) GetActive(schoolID, studentID, academicYearID string) (*models.StudentFeeSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
			  FROM student_fee_snapshots
			  WHERE school_id = $1 AND student_id = $2 AND academic_year_id = $3
			    AND superseded_by IS NULL AND deleted_at IS NULL`

	snap, err := scanSnapshot(d.DB.QueryRow(query, schoolID, studentID, academicYearID))
	if err == sql.ErrNoRows {
		return nil, services.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active snapshot: %v", err)
	}
	return snap, nil
}

// InsertSuperseding inserts the snapshot and points any prior active
// snapshot for the same key at it, in one transaction. The old row is
// kept (not deleted) so the billing history survives recalculation.
//
// The id is generated here rather than by the database: the partial
// unique index on the active key is checked per statement, so the prior
// row must already carry superseded_by before the new row is inserted.
func (d *SnapshotDB) InsertSuperseding(snap *models.StudentFeeSnapshot) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	snap.ID = uuid.NewString()

	_, err = tx.Exec(
		`UPDATE student_fee_snapshots
		 SET superseded_by = $1, updated_at = NOW()
		 WHERE school_id = $2 AND student_id = $3 AND academic_year_id = $4
		   AND superseded_by IS NULL AND deleted_at IS NULL`,
		snap.ID, snap.SchoolID, snap.StudentID, snap.AcademicYearID)
	if err != nil {
		return fmt.Errorf("failed to supersede prior snapshot: %v", err)
	}

	query := `INSERT INTO student_fee_snapshots (
				id, school_id, student_id, academic_year_id, fee_structure_id, bursary_id,
				payment_frequency, currency,
				base_tuition, activity_fees, material_fees, other_fees,
				payment_discount, sibling_discount, sibling_tier, bursary_amount,
				total_before_discounts, total_discounts, total_amount_due,
				total_paid, balance_due, status, due_date, version)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			          $16, $17, $18, $19, $20, $21, $22, $23, $24)
			  RETURNING created_at, updated_at`

	err = tx.QueryRow(query,
		snap.ID, snap.SchoolID, snap.StudentID, snap.AcademicYearID, snap.FeeStructureID, snap.BursaryID,
		snap.PaymentFrequency, snap.Currency,
		snap.BaseTuition, snap.ActivityFees, snap.MaterialFees, snap.OtherFees,
		snap.PaymentDiscount, snap.SiblingDiscount, snap.SiblingTier, snap.BursaryAmount,
		snap.TotalBeforeDiscounts, snap.TotalDiscounts, snap.TotalAmountDue,
		snap.TotalPaid, snap.BalanceDue, snap.Status, snap.DueDate, snap.Version,
	).Scan(&snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return tx.Commit()
}

// UpdateCAS writes the ledger-derived fields guarded by the version
// column. No row matching the old version means a concurrent writer
// won; the caller re-reads and retries.
func (d *SnapshotDB) UpdateCAS(snap *models.StudentFeeSnapshot) (bool, error) {
	ok, err := updateSnapshotCAS(d.DB, snap)
	if err != nil {
		return false, err
	}
	if ok {
		snap.Version++
	}
	return ok, nil
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func updateSnapshotCAS(e execer, snap *models.StudentFeeSnapshot) (bool, error) {
	result, err := e.Exec(
		`UPDATE student_fee_snapshots
		 SET total_paid = $1, balance_due = $2, status = $3,
		     last_overdue_notified = $4, version = version + 1, updated_at = NOW()
		 WHERE school_id = $5 AND id = $6 AND version = $7 AND deleted_at IS NULL`,
		snap.TotalPaid, snap.BalanceDue, snap.Status,
		snap.LastOverdueNotified,
		snap.SchoolID, snap.ID, snap.Version)
	if err != nil {
		return false, fmt.Errorf("failed to update snapshot: %v", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListOverdueCandidates returns active snapshots past due with an open
// balance, across all schools, for the daily sweep.
func (d *SnapshotDB) ListOverdueCandidates(today time.Time) ([]*models.StudentFeeSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
			  FROM student_fee_snapshots
			  WHERE due_date < $1 AND balance_due > 0
			    AND status NOT IN ('overdue', 'waived')
			    AND superseded_by IS NULL AND deleted_at IS NULL
			  ORDER BY due_date`

	rows, err := d.DB.Query(query, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.StudentFeeSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// ListOverdue returns a school's currently overdue snapshots.
func (d *SnapshotDB) ListOverdue(schoolID string) ([]*models.StudentFeeSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
			  FROM student_fee_snapshots
			  WHERE school_id = $1 AND status = 'overdue'
			    AND superseded_by IS NULL AND deleted_at IS NULL
			  ORDER BY due_date`

	rows, err := d.DB.Query(query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.StudentFeeSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// OutstandingTotals sums open balances and counts overdue snapshots.
func (d *SnapshotDB) OutstandingTotals(schoolID string) (int64, int, error) {
	var outstanding int64
	var overdue int
	err := d.DB.QueryRow(
		`SELECT COALESCE(SUM(balance_due), 0),
		        COUNT(*) FILTER (WHERE status = 'overdue')
		 FROM student_fee_snapshots
		 WHERE school_id = $1 AND status <> 'waived'
		   AND superseded_by IS NULL AND deleted_at IS NULL`,
		schoolID).Scan(&outstanding, &overdue)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum outstanding balances: %v", err)
	}
	return outstanding, overdue, nil
}
