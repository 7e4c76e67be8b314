package fees

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"greenschool/app/database"
	"greenschool/app/models"
	"greenschool/app/routes/auth"
	"greenschool/app/routes/respond"
	"greenschool/app/services"
)

// CalculateRequest drives both preview and persisted calculation.
type CalculateRequest struct {
	StudentID      string `json:"student_id" validate:"required,uuid"`
	AcademicYearID string `json:"academic_year_id" validate:"required,uuid"`
	Frequency      string `json:"payment_frequency" validate:"required,oneof=yearly monthly weekly"`
	DueDate        string `json:"due_date" validate:"required"`
}

func (r *CalculateRequest) toInput(schoolID string) (services.CalculationInput, error) {
	due, err := time.Parse("2006-01-02", r.DueDate)
	if err != nil {
		return services.CalculationInput{}, err
	}
	return services.CalculationInput{
		SchoolID:       schoolID,
		StudentID:      r.StudentID,
		AcademicYearID: r.AcademicYearID,
		Frequency:      models.PaymentFrequency(r.Frequency),
		DueDate:        due,
	}, nil
}

func parseCalculateRequest(c *fiber.Ctx) (services.CalculationInput, bool, error) {
	var req CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return services.CalculationInput{}, false, respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return services.CalculationInput{}, false, respond.BadRequest(c, err.Error())
	}
	in, err := req.toInput(auth.SchoolID(c))
	if err != nil {
		return services.CalculationInput{}, false, respond.BadRequest(c, "due_date must be YYYY-MM-DD")
	}
	return in, true, nil
}

// PreviewFeesAPI runs the calculation pipeline without persisting.
func PreviewFeesAPI(c *fiber.Ctx, calc *services.FeeCalculator) error {
	in, ok, early := parseCalculateRequest(c)
	if !ok {
		return early
	}

	snap, err := calc.Preview(in)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, snap)
}

// CalculateFeesAPI persists a new snapshot, superseding any prior
// active one for the student and year.
func CalculateFeesAPI(c *fiber.Ctx, calc *services.FeeCalculator) error {
	in, ok, early := parseCalculateRequest(c)
	if !ok {
		return early
	}

	snap, err := calc.CalculateAndPersist(in)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.Created(c, snap)
}

func GetSnapshotAPI(c *fiber.Ctx, store *database.SnapshotDB) error {
	snap, err := store.Get(auth.SchoolID(c), c.Params("id"))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, snap)
}

func GetActiveSnapshotAPI(c *fiber.Ctx, store *database.SnapshotDB) error {
	studentID := c.Query("student_id")
	yearID := c.Query("academic_year_id")
	if studentID == "" || yearID == "" {
		return respond.BadRequest(c, "student_id and academic_year_id are required")
	}

	snap, err := store.GetActive(auth.SchoolID(c), studentID, yearID)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, snap)
}

func ListOverdueAPI(c *fiber.Ctx, store *database.SnapshotDB) error {
	snaps, err := store.ListOverdue(auth.SchoolID(c))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, snaps)
}

func GetLedgerAPI(c *fiber.Ctx, ledger *services.PaymentLedger) error {
	entries, err := ledger.Ledger(auth.SchoolID(c), c.Params("id"))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, entries)
}

type waiveRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// WaiveFeesAPI freezes a snapshot at waived. Waiving is idempotent and
// blocks any further payments against the snapshot.
func WaiveFeesAPI(c *fiber.Ctx, ledger *services.PaymentLedger) error {
	var req waiveRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	snap, err := ledger.Waive(auth.SchoolID(c), c.Params("id"), req.Reason)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, snap)
}

// RevenueReportAPI aggregates collections and outstanding balances over
// a date range, defaulting to the current month.
func RevenueReportAPI(c *fiber.Ctx, ledger *services.PaymentLedger) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			return respond.BadRequest(c, "from must be YYYY-MM-DD")
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			return respond.BadRequest(c, "to must be YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return respond.BadRequest(c, "to must not be before from")
	}

	report, err := ledger.Revenue(auth.SchoolID(c), from, to)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, report)
}
