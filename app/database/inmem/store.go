// Package inmem provides in-memory implementations of the fee engine's
// store interfaces, mirroring the semantics of the Postgres layer
// (version compare-and-swap, atomic bursary capacity claims, receipt
// sequences). It backs the unit tests, including the concurrency ones.
package inmem

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"greenschool/app/models"
	"greenschool/app/services"
)

// Store holds every entity behind one mutex. Copies go in and out so a
// caller mutating its snapshot cannot bypass the version check, the
// same way a database row is isolated from the struct scanned off it.
// Snapshots(), Payments() and Bursaries() return views satisfying the
// corresponding service interfaces; Store itself serves as the
// structure store, student directory and event sink.
type Store struct {
	mu sync.Mutex

	structures  map[string]*models.FeeStructure
	snapshots   map[string]*models.StudentFeeSnapshot
	payments    map[string]*models.Payment
	bursaries   map[string]*models.Bursary
	assignments map[string]*models.BursaryAssignment
	students    map[string]*models.Student
	activities  map[string][]*models.EnrolledActivity
	years       map[string]*models.AcademicYear
	receipts    map[string]int64

	events []*models.DomainEvent
}

// New returns an empty store.
func New() *Store {
	return &Store{
		structures:  make(map[string]*models.FeeStructure),
		snapshots:   make(map[string]*models.StudentFeeSnapshot),
		payments:    make(map[string]*models.Payment),
		bursaries:   make(map[string]*models.Bursary),
		assignments: make(map[string]*models.BursaryAssignment),
		students:    make(map[string]*models.Student),
		activities:  make(map[string][]*models.EnrolledActivity),
		years:       make(map[string]*models.AcademicYear),
		receipts:    make(map[string]int64),
	}
}

// Snapshots returns the snapshot-store view.
func (s *Store) Snapshots() services.SnapshotStore { return snapshotView{s} }

// Payments returns the payment-store view.
func (s *Store) Payments() services.PaymentStore { return paymentView{s} }

// Bursaries returns the bursary-store view.
func (s *Store) Bursaries() services.BursaryStore { return bursaryView{s} }

func enrollKey(schoolID, studentID, yearID string) string {
	return schoolID + "/" + studentID + "/" + yearID
}

// ---- seeding helpers ----

func (s *Store) AddStructure(fs *models.FeeStructure) *models.FeeStructure {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs.ID == "" {
		fs.ID = uuid.NewString()
	}
	fs.IsActive = true
	cp := *fs
	s.structures[fs.ID] = &cp
	return fs
}

func (s *Store) AddStudent(st *models.Student) *models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.IsActive = true
	cp := *st
	s.students[st.ID] = &cp
	return st
}

func (s *Store) AddYear(ay *models.AcademicYear) *models.AcademicYear {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ay.ID == "" {
		ay.ID = uuid.NewString()
	}
	cp := *ay
	s.years[ay.ID] = &cp
	return ay
}

func (s *Store) AddBursary(b *models.Bursary) *models.Bursary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	cp := *b
	s.bursaries[b.ID] = &cp
	return b
}

func (s *Store) AddEnrollment(schoolID, studentID, yearID string, a *models.EnrolledActivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := enrollKey(schoolID, studentID, yearID)
	cp := *a
	s.activities[k] = append(s.activities[k], &cp)
}

// Events returns the emitted events, for assertions.
func (s *Store) Events() []*models.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ---- StructureStore ----

func (s *Store) Resolve(schoolID string, gradeLevel int, academicYearID string) (*models.FeeStructure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fs := range s.structures {
		if fs.SchoolID == schoolID && fs.GradeLevel == gradeLevel &&
			fs.AcademicYearID == academicYearID && fs.IsActive && fs.DeletedAt == nil {
			cp := *fs
			return &cp, nil
		}
	}
	return nil, services.ErrStructureNotFound
}

// ---- SnapshotStore ----

type snapshotView struct{ s *Store }

func (v snapshotView) Get(schoolID, id string) (*models.StudentFeeSnapshot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	snap, ok := v.s.snapshots[id]
	if !ok || snap.SchoolID != schoolID || snap.DeletedAt != nil {
		return nil, services.ErrSnapshotNotFound
	}
	cp := *snap
	return &cp, nil
}

func (v snapshotView) GetActive(schoolID, studentID, academicYearID string) (*models.StudentFeeSnapshot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, snap := range v.s.snapshots {
		if snap.SchoolID == schoolID && snap.StudentID == studentID &&
			snap.AcademicYearID == academicYearID && snap.SupersededBy == nil && snap.DeletedAt == nil {
			cp := *snap
			return &cp, nil
		}
	}
	return nil, services.ErrSnapshotNotFound
}

func (v snapshotView) InsertSuperseding(snap *models.StudentFeeSnapshot) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	snap.ID = uuid.NewString()
	snap.CreatedAt = time.Now()
	snap.UpdatedAt = snap.CreatedAt
	for _, prior := range v.s.snapshots {
		if prior.SchoolID == snap.SchoolID && prior.StudentID == snap.StudentID &&
			prior.AcademicYearID == snap.AcademicYearID &&
			prior.SupersededBy == nil && prior.DeletedAt == nil {
			id := snap.ID
			prior.SupersededBy = &id
		}
	}
	// Mirror the partial unique index on the active key: the insert is
	// rejected the way Postgres rejects it when a second active row for
	// (school, student, year) would come into existence.
	for _, prior := range v.s.snapshots {
		if prior.SchoolID == snap.SchoolID && prior.StudentID == snap.StudentID &&
			prior.AcademicYearID == snap.AcademicYearID &&
			prior.SupersededBy == nil && prior.DeletedAt == nil {
			return fmt.Errorf("duplicate active snapshot for student %s", snap.StudentID)
		}
	}
	cp := *snap
	v.s.snapshots[snap.ID] = &cp
	return nil
}

func (v snapshotView) UpdateCAS(snap *models.StudentFeeSnapshot) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.updateCASLocked(snap), nil
}

func (s *Store) updateCASLocked(snap *models.StudentFeeSnapshot) bool {
	stored, ok := s.snapshots[snap.ID]
	if !ok || stored.Version != snap.Version || stored.DeletedAt != nil {
		return false
	}
	stored.TotalPaid = snap.TotalPaid
	stored.BalanceDue = snap.BalanceDue
	stored.Status = snap.Status
	stored.LastOverdueNotified = snap.LastOverdueNotified
	stored.Version++
	stored.UpdatedAt = time.Now()
	snap.Version = stored.Version
	return true
}

func (v snapshotView) ListOverdueCandidates(today time.Time) ([]*models.StudentFeeSnapshot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*models.StudentFeeSnapshot
	for _, snap := range v.s.snapshots {
		if snap.SupersededBy != nil || snap.DeletedAt != nil {
			continue
		}
		if snap.Status == models.FeeOverdue || snap.Status == models.FeeWaived {
			continue
		}
		if snap.BalanceDue > 0 && snap.DueDate.Before(today) {
			cp := *snap
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (v snapshotView) OutstandingTotals(schoolID string) (int64, int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var outstanding int64
	var overdue int
	for _, snap := range v.s.snapshots {
		if snap.SchoolID != schoolID || snap.SupersededBy != nil || snap.DeletedAt != nil {
			continue
		}
		if snap.Status == models.FeeWaived {
			continue
		}
		outstanding += snap.BalanceDue
		if snap.Status == models.FeeOverdue {
			overdue++
		}
	}
	return outstanding, overdue, nil
}

// ---- PaymentStore ----

type paymentView struct{ s *Store }

func (v paymentView) Get(schoolID, id string) (*models.Payment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.payments[id]
	if !ok || p.SchoolID != schoolID {
		return nil, services.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (v paymentView) ListBySnapshot(schoolID, snapshotID string) ([]*models.Payment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range v.s.payments {
		if p.SchoolID == schoolID && p.SnapshotID == snapshotID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (v paymentView) RefundedTotal(schoolID, paymentID string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var total int64
	for _, p := range v.s.payments {
		if p.SchoolID == schoolID && p.RefundOf != nil && *p.RefundOf == paymentID &&
			p.Status == models.PaymentCompleted {
			total += p.Amount
		}
	}
	return total, nil
}

func (v paymentView) NextReceiptSeq(schoolID string, year int) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	k := fmt.Sprintf("%s/%d", schoolID, year)
	v.s.receipts[k]++
	return v.s.receipts[k], nil
}

func (v paymentView) AppendAndUpdate(p *models.Payment, snap *models.StudentFeeSnapshot) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if !v.s.updateCASLocked(snap) {
		return false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	v.s.payments[p.ID] = &cp
	return true, nil
}

func (v paymentView) MarkRefunded(schoolID, paymentID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.payments[paymentID]
	if !ok || p.SchoolID != schoolID {
		return services.ErrPaymentNotFound
	}
	p.Status = models.PaymentRefunded
	return nil
}

func (v paymentView) CollectedBetween(schoolID string, from, to time.Time) (int64, int64, int, int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var collected, refunded int64
	var payments, refunds int
	for _, p := range v.s.payments {
		if p.SchoolID != schoolID {
			continue
		}
		// Refunded originals keep counting; their refund entries offset
		// them so a fully refunded payment nets to zero.
		if p.Status != models.PaymentCompleted && p.Status != models.PaymentRefunded {
			continue
		}
		if p.PaymentDate.Before(from) || p.PaymentDate.After(to) {
			continue
		}
		if p.IsRefund() {
			refunded += p.Amount
			refunds++
		} else {
			collected += p.Amount
			payments++
		}
	}
	return collected, refunded, payments, refunds, nil
}

// ---- BursaryStore ----

type bursaryView struct{ s *Store }

func (v bursaryView) Get(schoolID, id string) (*models.Bursary, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bursaries[id]
	if !ok || b.SchoolID != schoolID || b.DeletedAt != nil {
		return nil, services.ErrBursaryNotFound
	}
	cp := *b
	return &cp, nil
}

func (v bursaryView) AssignmentFor(schoolID, studentID, academicYearID string) (*models.BursaryAssignment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, a := range v.s.assignments {
		if a.SchoolID == schoolID && a.StudentID == studentID &&
			a.AcademicYearID == academicYearID && a.DeletedAt == nil {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (v bursaryView) Assign(a *models.BursaryAssignment) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bursaries[a.BursaryID]
	if !ok || b.SchoolID != a.SchoolID || !b.IsActive || b.DeletedAt != nil {
		return 0, services.ErrBursaryNotFound
	}
	if b.CurrentRecipients >= b.MaxRecipients {
		return 0, &services.CapacityError{BursaryID: b.ID, MaxRecipients: b.MaxRecipients}
	}
	b.CurrentRecipients++
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	cp := *a
	v.s.assignments[a.ID] = &cp
	return b.MaxRecipients - b.CurrentRecipients, nil
}

func (v bursaryView) Unassign(schoolID, bursaryID, studentID, academicYearID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, a := range v.s.assignments {
		if a.SchoolID == schoolID && a.BursaryID == bursaryID && a.StudentID == studentID &&
			a.AcademicYearID == academicYearID && a.DeletedAt == nil {
			now := time.Now()
			a.DeletedAt = &now
			if b, ok := v.s.bursaries[bursaryID]; ok && b.CurrentRecipients > 0 {
				b.CurrentRecipients--
			}
			return nil
		}
	}
	return services.ErrBursaryNotFound
}

// ---- StudentDirectory ----

func (s *Store) Student(schoolID, id string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok || st.SchoolID != schoolID || !st.IsActive || st.DeletedAt != nil {
		return nil, services.ErrStudentNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) Siblings(schoolID, guardianID string) ([]*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Student
	for _, st := range s.students {
		if st.SchoolID == schoolID && st.GuardianID != nil && *st.GuardianID == guardianID &&
			st.IsActive && st.DeletedAt == nil {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) EnrolledActivities(schoolID, studentID, academicYearID string) ([]*models.EnrolledActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.activities[enrollKey(schoolID, studentID, academicYearID)]
	out := make([]*models.EnrolledActivity, 0, len(list))
	for _, a := range list {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) AcademicYear(schoolID, id string) (*models.AcademicYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ay, ok := s.years[id]
	if !ok || ay.SchoolID != schoolID {
		return nil, services.ErrYearNotFound
	}
	cp := *ay
	return &cp, nil
}

// ---- EventSink ----

func (s *Store) Emit(schoolID string, typ models.EventType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, &models.DomainEvent{
		ID:         uuid.NewString(),
		SchoolID:   schoolID,
		Type:       typ,
		Payload:    body,
		OccurredAt: time.Now(),
	})
	return nil
}
