package services

import (
	"errors"
	"fmt"
	"time"

	"greenschool/app/models"
)

// CalculationInput identifies the snapshot to compute. The school id
// always comes from the authenticated tenant context, never the request
// body.
type CalculationInput struct {
	SchoolID       string
	StudentID      string
	AcademicYearID string
	Frequency      models.PaymentFrequency
	DueDate        time.Time
}

// FeeCalculator composes the catalog, sibling resolver, prorater and
// bursary allocator into one deterministic amount-due snapshot.
type FeeCalculator struct {
	Catalog   *FeeCatalog
	Snapshots SnapshotStore
	Bursaries BursaryStore
	Students  StudentDirectory
}

// Preview runs the full calculation pipeline without persisting
// anything, for UI preview before commit.
func (fc *FeeCalculator) Preview(in CalculationInput) (*models.StudentFeeSnapshot, error) {
	return fc.build(in)
}

// CalculateAndPersist computes the snapshot and stores it, superseding
// any prior snapshot for the same (student, year) key. The calculation
// is all-or-nothing: a failure anywhere leaves no partial writes.
//
// Money already collected survives recalculation: the prior active
// snapshot's paid total carries into the new one and the status is
// re-derived against the new amount due, so repricing never re-bills a
// family for what the ledger already holds. A waived snapshot stays
// waived. If the new amount due falls below the carried total the
// balance clamps at zero.
func (fc *FeeCalculator) CalculateAndPersist(in CalculationInput) (*models.StudentFeeSnapshot, error) {
	snap, err := fc.build(in)
	if err != nil {
		return nil, err
	}

	prior, err := fc.Snapshots.GetActive(in.SchoolID, in.StudentID, in.AcademicYearID)
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return nil, err
	}
	if prior != nil {
		snap.TotalPaid = prior.TotalPaid
		snap.BalanceDue = snap.TotalAmountDue - prior.TotalPaid
		if snap.BalanceDue < 0 {
			snap.BalanceDue = 0
		}
		snap.Status = models.DeriveFeeStatus(snap.TotalAmountDue, prior.TotalPaid)
		if prior.IsWaived() {
			snap.Status = models.FeeWaived
		}
	}

	if err := fc.Snapshots.InsertSuperseding(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// build executes the pipeline. The order is fixed policy: frequency
// discount first, sibling discount on the already-discounted base,
// bursary last against tuition net of both discounts. Changing the
// order changes families' bills; see the fee policy notes in DESIGN.md.
func (fc *FeeCalculator) build(in CalculationInput) (*models.StudentFeeSnapshot, error) {
	if !in.Frequency.Valid() {
		return nil, ErrInvalidFrequency
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrValidation)
	}

	student, err := fc.Students.Student(in.SchoolID, in.StudentID)
	if err != nil {
		return nil, err
	}
	year, err := fc.Students.AcademicYear(in.SchoolID, in.AcademicYearID)
	if err != nil {
		return nil, err
	}

	// 1. Resolve pricing; fail fast when finance has not published it.
	structure, err := fc.Catalog.Resolve(in.SchoolID, student.GradeLevel, in.AcademicYearID)
	if err != nil {
		return nil, err
	}

	// 2. Base tuition for the chosen frequency.
	base, ok := structure.AmountFor(in.Frequency)
	if !ok {
		return nil, ErrInvalidFrequency
	}

	// 3. Payment-frequency discount on the raw base.
	paymentDiscount := base.ApplyPercent(structure.DiscountPercentFor(in.Frequency))

	// 4. Sibling discount on the frequency-discounted base, so the two
	// discounts do not double-count.
	tier := 0
	if student.GuardianID != nil {
		siblings, err := fc.Students.Siblings(in.SchoolID, *student.GuardianID)
		if err != nil {
			return nil, err
		}
		tier = ResolveSiblingTier(siblings, student.ID)
	}
	discountedBase, err := base.Sub(paymentDiscount)
	if err != nil {
		return nil, &InvariantError{Detail: err.Error()}
	}
	siblingDiscount := discountedBase.ApplyPercent(structure.SiblingPercentForTier(tier))

	// 5. Prorated activity fees.
	activities, err := fc.Students.EnrolledActivities(in.SchoolID, in.StudentID, in.AcademicYearID)
	if err != nil {
		return nil, err
	}
	activityTotal := base.Zero()
	for _, a := range activities {
		fee := a.Fee()
		if fee.Currency != base.Currency {
			return nil, &InvariantError{Detail: fmt.Sprintf(
				"activity %s billed in %s but tuition is %s", a.ActivityID, fee.Currency, base.Currency)}
		}
		prorated := ProrateActivityFee(fee, a.AllowProrate, year.StartDate.Time, year.EndDate.Time, a.EnrolledAt)
		if activityTotal, err = activityTotal.Add(prorated); err != nil {
			return nil, &InvariantError{Detail: err.Error()}
		}
	}

	// 6-7. Totals before discounts, then the discounts themselves.
	totalBefore := base.Amount + activityTotal.Amount + structure.MaterialFees + structure.OtherFees
	totalDiscounts := paymentDiscount.Amount + siblingDiscount.Amount

	// 8. Bursary against tuition net of both discounts; never against
	// activity or material fees.
	var bursaryID *string
	bursaryAmount := base.Zero()
	assignment, err := fc.Bursaries.AssignmentFor(in.SchoolID, in.StudentID, in.AcademicYearID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		bursary, err := fc.Bursaries.Get(in.SchoolID, assignment.BursaryID)
		if err != nil {
			return nil, err
		}
		net, err := discountedBase.Sub(siblingDiscount)
		if err != nil {
			return nil, &InvariantError{Detail: err.Error()}
		}
		bursaryAmount = AllocateBursary(bursary, net)
		bursaryID = &assignment.BursaryID
	}

	// 9. Amount due, clamped at zero.
	totalDue := totalBefore - totalDiscounts - bursaryAmount.Amount
	if totalDue < 0 {
		totalDue = 0
	}

	snap := &models.StudentFeeSnapshot{
		SchoolID:             in.SchoolID,
		StudentID:            in.StudentID,
		AcademicYearID:       in.AcademicYearID,
		FeeStructureID:       structure.ID,
		BursaryID:            bursaryID,
		PaymentFrequency:     in.Frequency,
		Currency:             base.Currency,
		BaseTuition:          base.Amount,
		ActivityFees:         activityTotal.Amount,
		MaterialFees:         structure.MaterialFees,
		OtherFees:            structure.OtherFees,
		PaymentDiscount:      paymentDiscount.Amount,
		SiblingDiscount:      siblingDiscount.Amount,
		SiblingTier:          tier,
		BursaryAmount:        bursaryAmount.Amount,
		TotalBeforeDiscounts: totalBefore,
		TotalDiscounts:       totalDiscounts,
		TotalAmountDue:       totalDue,
		TotalPaid:            0,
		BalanceDue:           totalDue,
		Status:               models.FeePending,
		DueDate:              in.DueDate,
		Version:              1,
	}
	return snap, nil
}
