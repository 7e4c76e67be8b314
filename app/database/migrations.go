package database

import (
	"database/sql"
	"log"
)

// RunMigrations ensures the schema exists. Statements are idempotent so
// the migration can run at every boot and in the migrate command.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone VARCHAR(20),
			roles TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_school ON users(school_id)`,

		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			student_code TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			gender VARCHAR(10),
			grade_level INTEGER NOT NULL CHECK (grade_level BETWEEN 1 AND 7),
			guardian_id UUID,
			enrollment_date DATE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_students_school ON students(school_id)`,
		`CREATE INDEX IF NOT EXISTS idx_students_guardian ON students(school_id, guardian_id)`,

		`CREATE TABLE IF NOT EXISTS academic_years (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			name TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT false,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_academic_years_school ON academic_years(school_id)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			name TEXT NOT NULL,
			fee_amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			allow_prorate BOOLEAN NOT NULL DEFAULT true,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_school ON activities(school_id)`,

		`CREATE TABLE IF NOT EXISTS activity_enrollments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			activity_id UUID NOT NULL REFERENCES activities(id),
			student_id UUID NOT NULL,
			academic_year_id UUID NOT NULL,
			enrolled_at DATE NOT NULL,
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_enrollments_student
			ON activity_enrollments(school_id, student_id, academic_year_id)`,

		`CREATE TABLE IF NOT EXISTS fee_structures (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			grade_level INTEGER NOT NULL CHECK (grade_level BETWEEN 1 AND 7),
			academic_year_id UUID NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			yearly_amount BIGINT NOT NULL DEFAULT 0,
			monthly_amount BIGINT NOT NULL DEFAULT 0,
			weekly_amount BIGINT NOT NULL DEFAULT 0,
			yearly_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			monthly_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			weekly_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			sibling_2_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			sibling_3_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			sibling_4_plus_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			apply_sibling_to_all BOOLEAN NOT NULL DEFAULT true,
			material_fees BIGINT NOT NULL DEFAULT 0,
			other_fees BIGINT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_fee_structures_active
			ON fee_structures(school_id, grade_level, academic_year_id)
			WHERE is_active = true AND deleted_at IS NULL`,

		`CREATE TABLE IF NOT EXISTS bursaries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			academic_year_id UUID NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			coverage_type VARCHAR(20) NOT NULL CHECK (coverage_type IN ('percentage', 'fixed_amount')),
			coverage_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			coverage_amount BIGINT NOT NULL DEFAULT 0,
			max_coverage_amount BIGINT,
			max_recipients INTEGER NOT NULL CHECK (max_recipients > 0),
			current_recipients INTEGER NOT NULL DEFAULT 0 CHECK (current_recipients >= 0 AND current_recipients <= max_recipients),
			eligible_grades INTEGER[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bursaries_school ON bursaries(school_id, academic_year_id)`,

		`CREATE TABLE IF NOT EXISTS bursary_assignments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			bursary_id UUID NOT NULL REFERENCES bursaries(id),
			student_id UUID NOT NULL,
			academic_year_id UUID NOT NULL,
			assigned_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_bursary_assignment_active
			ON bursary_assignments(school_id, student_id, academic_year_id)
			WHERE deleted_at IS NULL`,

		`CREATE TABLE IF NOT EXISTS student_fee_snapshots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			student_id UUID NOT NULL,
			academic_year_id UUID NOT NULL,
			fee_structure_id UUID NOT NULL REFERENCES fee_structures(id),
			bursary_id UUID,
			payment_frequency VARCHAR(10) NOT NULL,
			currency TEXT NOT NULL,
			base_tuition BIGINT NOT NULL,
			activity_fees BIGINT NOT NULL DEFAULT 0,
			material_fees BIGINT NOT NULL DEFAULT 0,
			other_fees BIGINT NOT NULL DEFAULT 0,
			payment_discount BIGINT NOT NULL DEFAULT 0,
			sibling_discount BIGINT NOT NULL DEFAULT 0,
			sibling_tier INTEGER NOT NULL DEFAULT 0,
			bursary_amount BIGINT NOT NULL DEFAULT 0,
			total_before_discounts BIGINT NOT NULL,
			total_discounts BIGINT NOT NULL,
			total_amount_due BIGINT NOT NULL CHECK (total_amount_due >= 0),
			total_paid BIGINT NOT NULL DEFAULT 0,
			balance_due BIGINT NOT NULL CHECK (balance_due >= 0),
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			due_date DATE NOT NULL,
			last_overdue_notified DATE,
			version INTEGER NOT NULL DEFAULT 1,
			superseded_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_snapshot_active
			ON student_fee_snapshots(school_id, student_id, academic_year_id)
			WHERE superseded_by IS NULL AND deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_status ON student_fee_snapshots(status)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_due ON student_fee_snapshots(due_date)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			snapshot_id UUID NOT NULL REFERENCES student_fee_snapshots(id),
			student_id UUID NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			currency TEXT NOT NULL,
			method VARCHAR(20) NOT NULL,
			payment_date TIMESTAMPTZ NOT NULL,
			receipt_number TEXT NOT NULL UNIQUE,
			status VARCHAR(20) NOT NULL DEFAULT 'completed',
			refund_of UUID REFERENCES payments(id),
			reason TEXT,
			recorded_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_snapshot ON payments(school_id, snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(school_id, payment_date)`,

		`CREATE TABLE IF NOT EXISTS receipt_sequences (
			school_id UUID NOT NULL,
			year INTEGER NOT NULL,
			value BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (school_id, year)
		)`,

		`CREATE TABLE IF NOT EXISTS domain_events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			type VARCHAR(40) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			published_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_events_unpublished
			ON domain_events(occurred_at) WHERE published_at IS NULL`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Migration failed: %v", err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
