package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenschool/app/models"
	"greenschool/app/services"
)

func TestCalculateSingleChild(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	snap, err := f.calculator.Preview(f.calcInput(student.ID))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), snap.BaseTuition)
	assert.Equal(t, int64(1000), snap.PaymentDiscount)
	assert.Equal(t, int64(0), snap.SiblingDiscount)
	assert.Equal(t, 0, snap.SiblingTier)
	assert.Equal(t, int64(9000), snap.TotalAmountDue)
	assert.Equal(t, int64(9000), snap.BalanceDue)
	assert.Equal(t, models.FeePending, snap.Status)
	assert.Equal(t, 1, snap.Version)
}

func TestCalculateSecondSibling(t *testing.T) {
	f := newFixture()
	guardian := "guardian-1"
	f.addStudent("S001", &guardian, "2020-01-10")
	second := f.addStudent("S002", &guardian, "2022-01-10")

	snap, err := f.calculator.Preview(f.calcInput(second.ID))
	require.NoError(t, err)

	// 10000 - 1000 frequency discount - 10% of 9000 sibling discount.
	assert.Equal(t, int64(1000), snap.PaymentDiscount)
	assert.Equal(t, int64(900), snap.SiblingDiscount)
	assert.Equal(t, 1, snap.SiblingTier)
	assert.Equal(t, int64(8100), snap.TotalAmountDue)
}

func TestCalculateWithFixedBursary(t *testing.T) {
	f := newFixture()
	guardian := "guardian-1"
	f.addStudent("S001", &guardian, "2020-01-10")
	second := f.addStudent("S002", &guardian, "2022-01-10")

	b := f.store.AddBursary(&models.Bursary{
		SchoolID:       testSchool,
		AcademicYearID: f.year.ID,
		Name:           "Hardship Fund",
		CoverageType:   models.CoverageFixedAmount,
		CoverageAmount: 2000,
		MaxRecipients:  5,
		IsActive:       true,
	})
	require.NoError(t, f.bursaries.Assign(testSchool, b.ID, second.ID, f.year.ID, nil))

	snap, err := f.calculator.Preview(f.calcInput(second.ID))
	require.NoError(t, err)

	assert.Equal(t, int64(2000), snap.BursaryAmount)
	assert.Equal(t, int64(6100), snap.TotalAmountDue)
	require.NotNil(t, snap.BursaryID)
	assert.Equal(t, b.ID, *snap.BursaryID)
}

func TestCalculateWithProratedActivity(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	// 365-day year; enrolling July 1 leaves 184 days.
	f.store.AddEnrollment(testSchool, student.ID, f.year.ID, &models.EnrolledActivity{
		ActivityID:   "act-1",
		Name:         "Swimming",
		Amount:       36500,
		Currency:     "USD",
		AllowProrate: true,
		EnrolledAt:   date("2025-07-01"),
	})

	snap, err := f.calculator.Preview(f.calcInput(student.ID))
	require.NoError(t, err)

	assert.Equal(t, int64(18400), snap.ActivityFees)
	assert.Equal(t, int64(9000+18400), snap.TotalAmountDue)
}

func TestCalculateActivityCurrencyMismatch(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	f.store.AddEnrollment(testSchool, student.ID, f.year.ID, &models.EnrolledActivity{
		ActivityID: "act-1",
		Name:       "Chess",
		Amount:     500,
		Currency:   "UGX",
		EnrolledAt: date("2025-01-01"),
	})

	_, err := f.calculator.Preview(f.calcInput(student.ID))
	var invErr *services.InvariantError
	assert.ErrorAs(t, err, &invErr)
}

func TestCalculateMissingStructure(t *testing.T) {
	f := newFixture()
	// Grade 5 has no published pricing.
	student := f.store.AddStudent(&models.Student{
		SchoolID:       testSchool,
		StudentCode:    "S009",
		GradeLevel:     5,
		EnrollmentDate: date("2024-01-10"),
	})

	_, err := f.calculator.Preview(f.calcInput(student.ID))
	assert.ErrorIs(t, err, services.ErrStructureNotFound)
}

func TestCalculateUnofferedFrequency(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	in := f.calcInput(student.ID)
	in.Frequency = models.FrequencyWeekly // weekly amount is zero
	_, err := f.calculator.Preview(in)
	assert.ErrorIs(t, err, services.ErrInvalidFrequency)

	in.Frequency = "daily"
	_, err = f.calculator.Preview(in)
	assert.ErrorIs(t, err, services.ErrInvalidFrequency)
}

func TestCalculateIsDeterministic(t *testing.T) {
	f := newFixture()
	guardian := "guardian-1"
	f.addStudent("S001", &guardian, "2020-01-10")
	second := f.addStudent("S002", &guardian, "2022-01-10")

	first, err := f.calculator.Preview(f.calcInput(second.ID))
	require.NoError(t, err)
	again, err := f.calculator.Preview(f.calcInput(second.ID))
	require.NoError(t, err)

	assert.Equal(t, first.TotalAmountDue, again.TotalAmountDue)
	assert.Equal(t, first.PaymentDiscount, again.PaymentDiscount)
	assert.Equal(t, first.SiblingDiscount, again.SiblingDiscount)
	assert.Equal(t, first.TotalBeforeDiscounts, again.TotalBeforeDiscounts)
}

func TestCalculateAndPersistSupersedes(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	first, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)

	second, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// The old snapshot now points at its replacement and is no longer
	// the active row for the student/year key.
	old, err := f.store.Snapshots().Get(testSchool, first.ID)
	require.NoError(t, err)
	require.NotNil(t, old.SupersededBy)
	assert.Equal(t, second.ID, *old.SupersededBy)

	active, err := f.store.Snapshots().GetActive(testSchool, student.ID, f.year.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestRecalculationChain(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	var ids []string
	for i := 0; i < 3; i++ {
		snap, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}

	// Each generation points at its successor; only the last is active.
	for i := 0; i+1 < len(ids); i++ {
		old, err := f.store.Snapshots().Get(testSchool, ids[i])
		require.NoError(t, err)
		require.NotNil(t, old.SupersededBy)
		assert.Equal(t, ids[i+1], *old.SupersededBy)
	}
	active, err := f.store.Snapshots().GetActive(testSchool, student.ID, f.year.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[len(ids)-1], active.ID)
}

func TestRecalculationCarriesPayments(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	first, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	require.Equal(t, int64(9000), first.TotalAmountDue)

	_, err = f.ledger.Record(testSchool, first.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)

	// Recalculating must not re-bill money the ledger already holds.
	second, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), second.TotalPaid)
	assert.Equal(t, int64(6000), second.BalanceDue)
	assert.Equal(t, models.FeePartial, second.Status)

	// The superseded row keeps its own totals for audit.
	old, err := f.store.Snapshots().Get(testSchool, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), old.TotalPaid)
	assert.Equal(t, int64(6000), old.BalanceDue)
}

func TestRecalculationClampsOverpaidBalance(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	yearly, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	_, err = f.ledger.Record(testSchool, yearly.ID, 3000, models.MethodCash, date("2025-03-01"), nil)
	require.NoError(t, err)

	// Switching to monthly billing drops the amount due below the paid
	// total; the balance clamps at zero instead of going negative.
	in := f.calcInput(student.ID)
	in.Frequency = models.FrequencyMonthly
	monthly, err := f.calculator.CalculateAndPersist(in)
	require.NoError(t, err)
	require.Equal(t, int64(1000), monthly.TotalAmountDue)
	assert.Equal(t, int64(3000), monthly.TotalPaid)
	assert.Equal(t, int64(0), monthly.BalanceDue)
	assert.Equal(t, models.FeePaid, monthly.Status)
}

func TestRecalculationKeepsWaiver(t *testing.T) {
	f := newFixture()
	student := f.addStudent("S001", nil, "2024-01-10")

	first, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	_, err = f.ledger.Waive(testSchool, first.ID, "family hardship")
	require.NoError(t, err)

	second, err := f.calculator.CalculateAndPersist(f.calcInput(student.ID))
	require.NoError(t, err)
	assert.Equal(t, models.FeeWaived, second.Status)
}

func TestCalculateTotalsInvariant(t *testing.T) {
	f := newFixture()
	guardian := "guardian-1"
	f.addStudent("S001", &guardian, "2020-01-10")
	second := f.addStudent("S002", &guardian, "2022-01-10")

	b := f.store.AddBursary(&models.Bursary{
		SchoolID:        testSchool,
		AcademicYearID:  f.year.ID,
		Name:            "Full Ride",
		CoverageType:    models.CoveragePercentage,
		CoveragePercent: 100,
		MaxRecipients:   1,
		IsActive:        true,
	})
	require.NoError(t, f.bursaries.Assign(testSchool, b.ID, second.ID, f.year.ID, nil))

	snap, err := f.calculator.Preview(f.calcInput(second.ID))
	require.NoError(t, err)

	assert.Equal(t, snap.TotalAmountDue,
		snap.TotalBeforeDiscounts-snap.TotalDiscounts-snap.BursaryAmount)
	assert.GreaterOrEqual(t, snap.TotalAmountDue, int64(0))
	assert.Equal(t, int64(0), snap.TotalAmountDue)
}
