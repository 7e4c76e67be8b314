package database

import (
	"database/sql"
	"fmt"

	"greenschool/app/models"
	"greenschool/app/services"
)

// StructureDB is the Postgres-backed fee structure store.
type StructureDB struct {
	DB *sql.DB
}

const structureColumns = `id, school_id, grade_level, academic_year_id, currency,
	yearly_amount, monthly_amount, weekly_amount,
	yearly_discount_percent, monthly_discount_percent, weekly_discount_percent,
	sibling_2_discount_percent, sibling_3_discount_percent, sibling_4_plus_discount_percent,
	apply_sibling_to_all, material_fees, other_fees,
	is_active, created_at, updated_at, deleted_at`

func scanStructure(row interface{ Scan(...interface{}) error }) (*models.FeeStructure, error) {
	fs := &models.FeeStructure{}
	err := row.Scan(
		&fs.ID, &fs.SchoolID, &fs.GradeLevel, &fs.AcademicYearID, &fs.Currency,
		&fs.YearlyAmount, &fs.MonthlyAmount, &fs.WeeklyAmount,
		&fs.YearlyDiscountPercent, &fs.MonthlyDiscountPercent, &fs.WeeklyDiscountPercent,
		&fs.Sibling2DiscountPercent, &fs.Sibling3DiscountPercent, &fs.Sibling4PlusDiscountPercent,
		&fs.ApplySiblingToAll, &fs.MaterialFees, &fs.OtherFees,
		&fs.IsActive, &fs.CreatedAt, &fs.UpdatedAt, &fs.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Resolve returns the one active structure for (school, grade, year).
func (s *StructureDB) Resolve(schoolID string, gradeLevel int, academicYearID string) (*models.FeeStructure, error) {
	query := `SELECT ` + structureColumns + `
			  FROM fee_structures
			  WHERE school_id = $1 AND grade_level = $2 AND academic_year_id = $3
			    AND is_active = true AND deleted_at IS NULL`

	fs, err := scanStructure(s.DB.QueryRow(query, schoolID, gradeLevel, academicYearID))
	if err == sql.ErrNoRows {
		return nil, services.ErrStructureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fee structure: %v", err)
	}
	return fs, nil
}

// GetByID returns a structure regardless of active flag, school-scoped.
func (s *StructureDB) GetByID(schoolID, id string) (*models.FeeStructure, error) {
	query := `SELECT ` + structureColumns + `
			  FROM fee_structures
			  WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`

	fs, err := scanStructure(s.DB.QueryRow(query, schoolID, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrStructureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee structure: %v", err)
	}
	return fs, nil
}

// List returns all non-deleted structures for a school.
func (s *StructureDB) List(schoolID string) ([]*models.FeeStructure, error) {
	query := `SELECT ` + structureColumns + `
			  FROM fee_structures
			  WHERE school_id = $1 AND deleted_at IS NULL
			  ORDER BY academic_year_id, grade_level`

	rows, err := s.DB.Query(query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var structures []*models.FeeStructure
	for rows.Next() {
		fs, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		structures = append(structures, fs)
	}
	return structures, rows.Err()
}

// Insert publishes new pricing. The partial unique index rejects a
// second active structure for the same (school, grade, year).
func (s *StructureDB) Insert(fs *models.FeeStructure) error {
	query := `INSERT INTO fee_structures (
				school_id, grade_level, academic_year_id, currency,
				yearly_amount, monthly_amount, weekly_amount,
				yearly_discount_percent, monthly_discount_percent, weekly_discount_percent,
				sibling_2_discount_percent, sibling_3_discount_percent, sibling_4_plus_discount_percent,
				apply_sibling_to_all, material_fees, other_fees)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			  RETURNING id, is_active, created_at, updated_at`

	err := s.DB.QueryRow(query,
		fs.SchoolID, fs.GradeLevel, fs.AcademicYearID, fs.Currency,
		fs.YearlyAmount, fs.MonthlyAmount, fs.WeeklyAmount,
		fs.YearlyDiscountPercent, fs.MonthlyDiscountPercent, fs.WeeklyDiscountPercent,
		fs.Sibling2DiscountPercent, fs.Sibling3DiscountPercent, fs.Sibling4PlusDiscountPercent,
		fs.ApplySiblingToAll, fs.MaterialFees, fs.OtherFees,
	).Scan(&fs.ID, &fs.IsActive, &fs.CreatedAt, &fs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fee structure: %v", err)
	}
	return nil
}

// Deactivate retires a structure so new pricing can be published for
// its (grade, year). Existing snapshots keep referencing the old row.
func (s *StructureDB) Deactivate(schoolID, id string) error {
	result, err := s.DB.Exec(
		`UPDATE fee_structures SET is_active = false, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate fee structure: %v", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return services.ErrStructureNotFound
	}
	return nil
}
