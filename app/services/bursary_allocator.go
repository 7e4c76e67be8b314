package services

import (
	"greenschool/app/models"
)

// AllocateBursary computes the coverage a bursary contributes against
// the given base (tuition net of frequency and sibling discounts).
// Percentage coverage is capped by max_coverage_amount when configured;
// fixed coverage can never exceed the base it offsets. The result is
// never negative and never larger than base.
func AllocateBursary(b *models.Bursary, base models.Money) models.Money {
	if base.Amount <= 0 {
		return base.Zero()
	}

	var covered models.Money
	switch b.CoverageType {
	case models.CoveragePercentage:
		covered = base.ApplyPercent(b.CoveragePercent)
		if b.MaxCoverageAmount != nil && covered.Amount > *b.MaxCoverageAmount {
			covered = models.NewMoney(*b.MaxCoverageAmount, base.Currency)
		}
	case models.CoverageFixedAmount:
		covered = models.NewMoney(b.CoverageAmount, base.Currency)
	default:
		return base.Zero()
	}

	if covered.Amount > base.Amount {
		covered = base
	}
	if covered.IsNegative() {
		return base.Zero()
	}
	return covered
}

// BursaryService handles assignment lifecycle around the atomic
// capacity claim performed by the store.
type BursaryService struct {
	Bursaries BursaryStore
	Students  StudentDirectory
	Events    EventSink
}

// Assign grants the bursary to a student for an academic year. The
// eligibility checks run first; the capacity check itself happens inside
// the store's conditional increment, so a full bursary fails with
// *CapacityError even under concurrent assignment attempts.
func (s *BursaryService) Assign(schoolID, bursaryID, studentID, academicYearID string, assignedBy *string) error {
	b, err := s.Bursaries.Get(schoolID, bursaryID)
	if err != nil {
		return err
	}
	if !b.IsActive {
		return ErrBursaryNotFound
	}
	if b.AcademicYearID != academicYearID {
		return ErrValidation
	}

	st, err := s.Students.Student(schoolID, studentID)
	if err != nil {
		return err
	}
	if !b.EligibleForGrade(st.GradeLevel) {
		return ErrValidation
	}

	if existing, err := s.Bursaries.AssignmentFor(schoolID, studentID, academicYearID); err != nil {
		return err
	} else if existing != nil {
		return ErrValidation
	}

	remaining, err := s.Bursaries.Assign(&models.BursaryAssignment{
		SchoolID:       schoolID,
		BursaryID:      bursaryID,
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		AssignedBy:     assignedBy,
	})
	if err != nil {
		return err
	}

	if remaining == 0 && s.Events != nil {
		s.Events.Emit(schoolID, models.EventBursaryCapacityReached, map[string]interface{}{
			"bursary_id":     bursaryID,
			"max_recipients": b.MaxRecipients,
		})
	}
	return nil
}

// Unassign removes the student's assignment and releases the slot.
func (s *BursaryService) Unassign(schoolID, bursaryID, studentID, academicYearID string) error {
	return s.Bursaries.Unassign(schoolID, bursaryID, studentID, academicYearID)
}
