package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"greenschool/app/models"
	"greenschool/app/services"
)

// BursaryDB is the Postgres-backed bursary store.
type BursaryDB struct {
	DB *sql.DB
}

const bursaryColumns = `id, school_id, academic_year_id, name, description,
	coverage_type, coverage_percent, coverage_amount, max_coverage_amount,
	max_recipients, current_recipients, eligible_grades,
	is_active, created_at, updated_at, deleted_at`

func scanBursary(row interface{ Scan(...interface{}) error }) (*models.Bursary, error) {
	b := &models.Bursary{}
	var grades pq.Int64Array
	err := row.Scan(
		&b.ID, &b.SchoolID, &b.AcademicYearID, &b.Name, &b.Description,
		&b.CoverageType, &b.CoveragePercent, &b.CoverageAmount, &b.MaxCoverageAmount,
		&b.MaxRecipients, &b.CurrentRecipients, &grades,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	b.EligibleGrades = make([]int, len(grades))
	for i, g := range grades {
		b.EligibleGrades[i] = int(g)
	}
	return b, nil
}

// Get returns a bursary by id, school-scoped.
func (d *BursaryDB) Get(schoolID, id string) (*models.Bursary, error) {
	query := `SELECT ` + bursaryColumns + `
			  FROM bursaries
			  WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`

	b, err := scanBursary(d.DB.QueryRow(query, schoolID, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrBursaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bursary: %v", err)
	}
	return b, nil
}

// List returns a school's bursaries for an academic year.
func (d *BursaryDB) List(schoolID, academicYearID string) ([]*models.Bursary, error) {
	query := `SELECT ` + bursaryColumns + `
			  FROM bursaries
			  WHERE school_id = $1 AND academic_year_id = $2 AND deleted_at IS NULL
			  ORDER BY name`

	rows, err := d.DB.Query(query, schoolID, academicYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bursaries []*models.Bursary
	for rows.Next() {
		b, err := scanBursary(rows)
		if err != nil {
			return nil, err
		}
		bursaries = append(bursaries, b)
	}
	return bursaries, rows.Err()
}

// Insert creates a bursary program.
func (d *BursaryDB) Insert(b *models.Bursary) error {
	grades := make(pq.Int64Array, len(b.EligibleGrades))
	for i, g := range b.EligibleGrades {
		grades[i] = int64(g)
	}

	query := `INSERT INTO bursaries (
				school_id, academic_year_id, name, description,
				coverage_type, coverage_percent, coverage_amount, max_coverage_amount,
				max_recipients, eligible_grades)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id, current_recipients, is_active, created_at, updated_at`

	err := d.DB.QueryRow(query,
		b.SchoolID, b.AcademicYearID, b.Name, b.Description,
		b.CoverageType, b.CoveragePercent, b.CoverageAmount, b.MaxCoverageAmount,
		b.MaxRecipients, grades,
	).Scan(&b.ID, &b.CurrentRecipients, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bursary: %v", err)
	}
	return nil
}

// Retire deactivates a bursary; existing assignments stay in force.
func (d *BursaryDB) Retire(schoolID, id string) error {
	result, err := d.DB.Exec(
		`UPDATE bursaries SET is_active = false, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("failed to retire bursary: %v", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return services.ErrBursaryNotFound
	}
	return nil
}

// AssignmentFor returns the student's live assignment, or nil.
func (d *BursaryDB) AssignmentFor(schoolID, studentID, academicYearID string) (*models.BursaryAssignment, error) {
	a := &models.BursaryAssignment{}
	err := d.DB.QueryRow(
		`SELECT id, school_id, bursary_id, student_id, academic_year_id, assigned_by, created_at
		 FROM bursary_assignments
		 WHERE school_id = $1 AND student_id = $2 AND academic_year_id = $3 AND deleted_at IS NULL`,
		schoolID, studentID, academicYearID,
	).Scan(&a.ID, &a.SchoolID, &a.BursaryID, &a.StudentID, &a.AcademicYearID, &a.AssignedBy, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bursary assignment: %v", err)
	}
	return a, nil
}

// Assign claims a recipient slot and inserts the assignment in one
// transaction. The capacity check and the counter increment are the
// same conditional UPDATE, so a stale read can never oversubscribe the
// program: the second of two racing claims simply matches no row.
func (d *BursaryDB) Assign(a *models.BursaryAssignment) (int, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var remaining int
	err = tx.QueryRow(
		`UPDATE bursaries
		 SET current_recipients = current_recipients + 1, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND is_active = true AND deleted_at IS NULL
		   AND current_recipients < max_recipients
		 RETURNING max_recipients - current_recipients`,
		a.SchoolID, a.BursaryID).Scan(&remaining)
	if err == sql.ErrNoRows {
		// Either missing or full; distinguish for the caller.
		bursary, lookupErr := d.Get(a.SchoolID, a.BursaryID)
		if lookupErr != nil {
			return 0, lookupErr
		}
		return 0, &services.CapacityError{BursaryID: a.BursaryID, MaxRecipients: bursary.MaxRecipients}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim bursary slot: %v", err)
	}

	err = tx.QueryRow(
		`INSERT INTO bursary_assignments (school_id, bursary_id, student_id, academic_year_id, assigned_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.SchoolID, a.BursaryID, a.StudentID, a.AcademicYearID, a.AssignedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bursary assignment: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Unassign soft-deletes the assignment and releases its slot.
func (d *BursaryDB) Unassign(schoolID, bursaryID, studentID, academicYearID string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE bursary_assignments SET deleted_at = NOW()
		 WHERE school_id = $1 AND bursary_id = $2 AND student_id = $3
		   AND academic_year_id = $4 AND deleted_at IS NULL`,
		schoolID, bursaryID, studentID, academicYearID)
	if err != nil {
		return fmt.Errorf("failed to remove bursary assignment: %v", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return services.ErrBursaryNotFound
	}

	_, err = tx.Exec(
		`UPDATE bursaries
		 SET current_recipients = current_recipients - 1, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND current_recipients > 0`,
		schoolID, bursaryID)
	if err != nil {
		return fmt.Errorf("failed to release bursary slot: %v", err)
	}

	return tx.Commit()
}
