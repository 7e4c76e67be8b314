package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"greenschool/app/models"
	"greenschool/app/services"
)

// GetUserByEmail fetches an active user for login.
func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	u := &models.User{}
	var roles pq.StringArray
	err := db.QueryRow(
		`SELECT id, school_id, email, password, first_name, last_name, COALESCE(phone, ''), roles, is_active
		 FROM users
		 WHERE email = $1 AND is_active = true AND deleted_at IS NULL`,
		email,
	).Scan(&u.ID, &u.SchoolID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &roles, &u.IsActive)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return u, nil
}

// GetUserByID fetches an active user by id.
func GetUserByID(db *sql.DB, id string) (*models.User, error) {
	u := &models.User{}
	var roles pq.StringArray
	err := db.QueryRow(
		`SELECT id, school_id, email, password, first_name, last_name, COALESCE(phone, ''), roles, is_active
		 FROM users
		 WHERE id = $1 AND is_active = true AND deleted_at IS NULL`,
		id,
	).Scan(&u.ID, &u.SchoolID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &roles, &u.IsActive)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return u, nil
}

// CreateUser inserts a staff user with a pre-hashed password.
func CreateUser(db *sql.DB, u *models.User) error {
	return db.QueryRow(
		`INSERT INTO users (school_id, email, password, first_name, last_name, roles, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		u.SchoolID, u.Email, u.Password, u.FirstName, u.LastName, pq.StringArray(u.Roles), u.IsActive,
	).Scan(&u.ID)
}

// UpdateUserPassword replaces the stored bcrypt hash.
func UpdateUserPassword(db *sql.DB, userID, hashedPassword string) error {
	_, err := db.Exec(
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`,
		hashedPassword, userID,
	)
	return err
}

// DirectoryDB is the read-only student/activity collaborator backed by
// the identity tables. The fee engine only reads through this type; it
// never writes identity data.
type DirectoryDB struct {
	DB *sql.DB
}

const studentColumns = `id, school_id, student_code, first_name, last_name, COALESCE(gender, ''),
	grade_level, guardian_id, enrollment_date, is_active, created_at, updated_at, deleted_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(
		&s.ID, &s.SchoolID, &s.StudentCode, &s.FirstName, &s.LastName, &s.Gender,
		&s.GradeLevel, &s.GuardianID, &s.EnrollmentDate, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Student returns an active student, school-scoped.
func (d *DirectoryDB) Student(schoolID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + `
			  FROM students
			  WHERE school_id = $1 AND id = $2 AND is_active = true AND deleted_at IS NULL`

	s, err := scanStudent(d.DB.QueryRow(query, schoolID, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student: %v", err)
	}
	return s, nil
}

// Siblings returns the active students sharing a guardian.
func (d *DirectoryDB) Siblings(schoolID, guardianID string) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + `
			  FROM students
			  WHERE school_id = $1 AND guardian_id = $2 AND is_active = true AND deleted_at IS NULL
			  ORDER BY enrollment_date, id`

	rows, err := d.DB.Query(query, schoolID, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var siblings []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, s)
	}
	return siblings, rows.Err()
}

// EnrolledActivities returns the student's activity enrollments for the
// year joined with each activity's fee configuration.
func (d *DirectoryDB) EnrolledActivities(schoolID, studentID, academicYearID string) ([]*models.EnrolledActivity, error) {
	query := `SELECT a.id, a.name, a.fee_amount, a.currency, a.allow_prorate, e.enrolled_at
			  FROM activity_enrollments e
			  JOIN activities a ON e.activity_id = a.id
			  WHERE e.school_id = $1 AND e.student_id = $2 AND e.academic_year_id = $3
			    AND e.deleted_at IS NULL AND a.deleted_at IS NULL AND a.is_active = true
			  ORDER BY a.name`

	rows, err := d.DB.Query(query, schoolID, studentID, academicYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.EnrolledActivity
	for rows.Next() {
		a := &models.EnrolledActivity{}
		if err := rows.Scan(&a.ActivityID, &a.Name, &a.Amount, &a.Currency, &a.AllowProrate, &a.EnrolledAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// AcademicYear returns an academic year, school-scoped.
func (d *DirectoryDB) AcademicYear(schoolID, id string) (*models.AcademicYear, error) {
	ay := &models.AcademicYear{}
	err := d.DB.QueryRow(
		`SELECT id, school_id, name, start_date, end_date, is_current, is_active, created_at, updated_at
		 FROM academic_years
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id,
	).Scan(&ay.ID, &ay.SchoolID, &ay.Name, &ay.StartDate, &ay.EndDate, &ay.IsCurrent, &ay.IsActive, &ay.CreatedAt, &ay.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, services.ErrYearNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch academic year: %v", err)
	}
	return ay, nil
}
