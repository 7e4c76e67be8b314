package feestructures

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"greenschool/app/database"
	"greenschool/app/models"
	"greenschool/app/routes/auth"
	"greenschool/app/routes/respond"
)

// CreateStructureRequest is the published-pricing payload. Amounts are
// minor units; a zero amount means the frequency is not offered.
type CreateStructureRequest struct {
	GradeLevel     int    `json:"grade_level" validate:"required,min=1,max=7"`
	AcademicYearID string `json:"academic_year_id" validate:"required,uuid"`
	Currency       string `json:"currency" validate:"required,len=3"`

	YearlyAmount  int64 `json:"yearly_amount" validate:"gte=0"`
	MonthlyAmount int64 `json:"monthly_amount" validate:"gte=0"`
	WeeklyAmount  int64 `json:"weekly_amount" validate:"gte=0"`

	YearlyDiscountPercent  float64 `json:"yearly_discount_percent" validate:"gte=0,lte=100"`
	MonthlyDiscountPercent float64 `json:"monthly_discount_percent" validate:"gte=0,lte=100"`
	WeeklyDiscountPercent  float64 `json:"weekly_discount_percent" validate:"gte=0,lte=100"`

	Sibling2DiscountPercent     float64 `json:"sibling_2_discount_percent" validate:"gte=0,lte=100"`
	Sibling3DiscountPercent     float64 `json:"sibling_3_discount_percent" validate:"gte=0,lte=100"`
	Sibling4PlusDiscountPercent float64 `json:"sibling_4_plus_discount_percent" validate:"gte=0,lte=100"`
	ApplySiblingToAll           bool    `json:"apply_sibling_to_all"`

	MaterialFees int64 `json:"material_fees" validate:"gte=0"`
	OtherFees    int64 `json:"other_fees" validate:"gte=0"`
}

// CreateStructureAPI publishes pricing for a grade/year. The database
// enforces one active structure per (grade, year); republishing pricing
// requires deactivating the existing row first.
func CreateStructureAPI(c *fiber.Ctx, store *database.StructureDB) error {
	var req CreateStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	if req.YearlyAmount == 0 && req.MonthlyAmount == 0 && req.WeeklyAmount == 0 {
		return respond.BadRequest(c, "At least one payment frequency must have an amount")
	}

	fs := &models.FeeStructure{
		SchoolID:                    auth.SchoolID(c),
		GradeLevel:                  req.GradeLevel,
		AcademicYearID:              req.AcademicYearID,
		Currency:                    req.Currency,
		YearlyAmount:                req.YearlyAmount,
		MonthlyAmount:               req.MonthlyAmount,
		WeeklyAmount:                req.WeeklyAmount,
		YearlyDiscountPercent:       req.YearlyDiscountPercent,
		MonthlyDiscountPercent:      req.MonthlyDiscountPercent,
		WeeklyDiscountPercent:       req.WeeklyDiscountPercent,
		Sibling2DiscountPercent:     req.Sibling2DiscountPercent,
		Sibling3DiscountPercent:     req.Sibling3DiscountPercent,
		Sibling4PlusDiscountPercent: req.Sibling4PlusDiscountPercent,
		ApplySiblingToAll:           req.ApplySiblingToAll,
		MaterialFees:                req.MaterialFees,
		OtherFees:                   req.OtherFees,
		IsActive:                    true,
	}

	if err := store.Insert(fs); err != nil {
		return respond.Err(c, err)
	}

	return respond.Created(c, fs)
}

func ListStructuresAPI(c *fiber.Ctx, store *database.StructureDB) error {
	structures, err := store.List(auth.SchoolID(c))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, structures)
}

func GetStructureAPI(c *fiber.Ctx, store *database.StructureDB) error {
	fs, err := store.GetByID(auth.SchoolID(c), c.Params("id"))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, fs)
}

// ResolveStructureAPI looks up the active structure for a grade/year,
// the same lookup the calculator performs.
func ResolveStructureAPI(c *fiber.Ctx, store *database.StructureDB) error {
	grade, err := strconv.Atoi(c.Query("grade_level"))
	if err != nil || grade < 1 || grade > 7 {
		return respond.BadRequest(c, "grade_level must be between 1 and 7")
	}
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		return respond.BadRequest(c, "academic_year_id is required")
	}

	fs, err := store.Resolve(auth.SchoolID(c), grade, yearID)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, fs)
}

func DeactivateStructureAPI(c *fiber.Ctx, store *database.StructureDB) error {
	if err := store.Deactivate(auth.SchoolID(c), c.Params("id")); err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, fiber.Map{"message": "Fee structure deactivated"})
}
