package services

import (
	"time"

	"greenschool/app/models"
)

// Store interfaces consumed by the fee engine. Postgres implementations
// live in app/database; app/database/inmem provides the in-memory
// implementation used by unit tests. Every method is scoped by school id
// so cross-tenant access is structurally impossible.

// StructureStore resolves published tuition pricing.
type StructureStore interface {
	// Resolve returns the one active structure for the tuple or
	// ErrStructureNotFound; an absent structure is a hard precondition
	// failure, never defaulted.
	Resolve(schoolID string, gradeLevel int, academicYearID string) (*models.FeeStructure, error)
}

// SnapshotStore persists student fee snapshots.
type SnapshotStore interface {
	Get(schoolID, id string) (*models.StudentFeeSnapshot, error)
	// GetActive returns the live snapshot for (school, student, year),
	// or ErrSnapshotNotFound.
	GetActive(schoolID, studentID, academicYearID string) (*models.StudentFeeSnapshot, error)
	// InsertSuperseding inserts snap and soft-expires any prior active
	// snapshot for the same key in the same transaction.
	InsertSuperseding(snap *models.StudentFeeSnapshot) error
	// UpdateCAS writes the ledger-derived fields (totals, status,
	// overdue notification date) guarded by the version column. It
	// returns false without writing when the stored version no longer
	// matches snap.Version; on success snap.Version is incremented.
	UpdateCAS(snap *models.StudentFeeSnapshot) (bool, error)
	// ListOverdueCandidates returns active snapshots across all schools
	// with due_date before today, a positive balance and a status
	// outside {overdue, waived}.
	ListOverdueCandidates(today time.Time) ([]*models.StudentFeeSnapshot, error)
	// OutstandingTotals sums balance_due over active snapshots and
	// counts the overdue ones for one school.
	OutstandingTotals(schoolID string) (outstanding int64, overdueCount int, err error)
}

// PaymentStore persists the append-only payment ledger.
type PaymentStore interface {
	Get(schoolID, id string) (*models.Payment, error)
	ListBySnapshot(schoolID, snapshotID string) ([]*models.Payment, error)
	// RefundedTotal sums completed refund entries against the payment.
	RefundedTotal(schoolID, paymentID string) (int64, error)
	// NextReceiptSeq atomically claims the next receipt sequence value
	// for (school, year). Monotonic and never repeating; gaps are fine.
	NextReceiptSeq(schoolID string, year int) (int64, error)
	// AppendAndUpdate inserts the ledger entry and applies the snapshot
	// update in one transaction, guarded by the snapshot version. It
	// returns false without writing anything on a version conflict.
	AppendAndUpdate(p *models.Payment, snap *models.StudentFeeSnapshot) (bool, error)
	// MarkRefunded flips a fully-refunded payment's status.
	MarkRefunded(schoolID, paymentID string) error
	// CollectedBetween sums completed payments and refunds dated within
	// [from, to] for one school.
	CollectedBetween(schoolID string, from, to time.Time) (collected, refunded int64, payments, refunds int, err error)
}

// BursaryStore persists bursaries and their assignments.
type BursaryStore interface {
	Get(schoolID, id string) (*models.Bursary, error)
	// AssignmentFor returns the live assignment for (student, year), or
	// nil when the student holds none.
	AssignmentFor(schoolID, studentID, academicYearID string) (*models.BursaryAssignment, error)
	// Assign claims a recipient slot and inserts the assignment
	// atomically. The capacity check and the counter increment are one
	// conditional statement, so two concurrent assignments can never
	// both pass a stale check. Returns the remaining slots after the
	// claim, or a *CapacityError when the bursary is full.
	Assign(a *models.BursaryAssignment) (remaining int, err error)
	// Unassign soft-deletes the assignment and releases its slot.
	Unassign(schoolID, bursaryID, studentID, academicYearID string) error
}

// StudentDirectory is the read-only identity/activity collaborator.
type StudentDirectory interface {
	Student(schoolID, id string) (*models.Student, error)
	// Siblings returns the active students sharing a guardian,
	// including the guardian's own children enrolled in other grades.
	Siblings(schoolID, guardianID string) ([]*models.Student, error)
	EnrolledActivities(schoolID, studentID, academicYearID string) ([]*models.EnrolledActivity, error)
	AcademicYear(schoolID, id string) (*models.AcademicYear, error)
}

// EventSink receives domain events for external consumers. The Postgres
// implementation writes an outbox row; delivery is someone else's job.
type EventSink interface {
	Emit(schoolID string, typ models.EventType, payload interface{}) error
}
