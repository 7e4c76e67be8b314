package services_test

import (
	"time"

	"greenschool/app/database/inmem"
	"greenschool/app/models"
	"greenschool/app/services"
)

const testSchool = "school-1"

// fixture wires the fee engine against the in-memory store with one
// school, one academic year and a published grade-3 structure matching
// the worked pricing examples (yearly 10000, 10% yearly discount, 10%
// second-sibling discount).
type fixture struct {
	store      *inmem.Store
	year       *models.AcademicYear
	structure  *models.FeeStructure
	calculator *services.FeeCalculator
	ledger     *services.PaymentLedger
	bursaries  *services.BursaryService
	scanner    *services.OverdueScanner
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture() *fixture {
	store := inmem.New()

	year := store.AddYear(&models.AcademicYear{
		SchoolID:  testSchool,
		Name:      "2025",
		StartDate: models.CustomTime{Time: date("2025-01-01")},
		EndDate:   models.CustomTime{Time: date("2025-12-31")},
		IsActive:  true,
	})

	structure := store.AddStructure(&models.FeeStructure{
		SchoolID:                testSchool,
		GradeLevel:              3,
		AcademicYearID:          year.ID,
		Currency:                "USD",
		YearlyAmount:            10000,
		MonthlyAmount:           1000,
		YearlyDiscountPercent:   10,
		Sibling2DiscountPercent: 10,
		Sibling3DiscountPercent: 15,
		ApplySiblingToAll:       true,
	})

	return &fixture{
		store:     store,
		year:      year,
		structure: structure,
		calculator: &services.FeeCalculator{
			Catalog:   &services.FeeCatalog{Structures: store},
			Snapshots: store.Snapshots(),
			Bursaries: store.Bursaries(),
			Students:  store,
		},
		ledger: &services.PaymentLedger{
			Snapshots: store.Snapshots(),
			Payments:  store.Payments(),
			Events:    store,
		},
		bursaries: &services.BursaryService{
			Bursaries: store.Bursaries(),
			Students:  store,
			Events:    store,
		},
		scanner: &services.OverdueScanner{
			Snapshots: store.Snapshots(),
			Events:    store,
		},
	}
}

// addStudent enrolls a grade-3 student, optionally under a guardian.
func (f *fixture) addStudent(code string, guardianID *string, enrolled string) *models.Student {
	return f.store.AddStudent(&models.Student{
		SchoolID:       testSchool,
		StudentCode:    code,
		FirstName:      "Test",
		LastName:       code,
		GradeLevel:     3,
		GuardianID:     guardianID,
		EnrollmentDate: date(enrolled),
	})
}

func (f *fixture) calcInput(studentID string) services.CalculationInput {
	return services.CalculationInput{
		SchoolID:       testSchool,
		StudentID:      studentID,
		AcademicYearID: f.year.ID,
		Frequency:      models.FrequencyYearly,
		DueDate:        date("2025-02-01"),
	}
}

// eventCount tallies emitted events of one type.
func (f *fixture) eventCount(typ models.EventType) int {
	n := 0
	for _, e := range f.store.Events() {
		if e.Type == typ {
			n++
		}
	}
	return n
}
