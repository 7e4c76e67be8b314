package bursaries

import (
	"github.com/gofiber/fiber/v2"

	"greenschool/app/database"
	"greenschool/app/models"
	"greenschool/app/routes/auth"
	"greenschool/app/routes/respond"
	"greenschool/app/services"
)

type CreateBursaryRequest struct {
	AcademicYearID    string  `json:"academic_year_id" validate:"required,uuid"`
	Name              string  `json:"name" validate:"required"`
	Description       *string `json:"description,omitempty"`
	CoverageType      string  `json:"coverage_type" validate:"required,oneof=percentage fixed_amount"`
	CoveragePercent   float64 `json:"coverage_percent" validate:"gte=0,lte=100"`
	CoverageAmount    int64   `json:"coverage_amount" validate:"gte=0"`
	MaxCoverageAmount *int64  `json:"max_coverage_amount,omitempty"`
	MaxRecipients     int     `json:"max_recipients" validate:"required,gt=0"`
	EligibleGrades    []int   `json:"eligible_grades,omitempty" validate:"omitempty,dive,min=1,max=7"`
}

func CreateBursaryAPI(c *fiber.Ctx, store *database.BursaryDB) error {
	var req CreateBursaryRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	coverageType := models.CoverageType(req.CoverageType)
	if coverageType == models.CoveragePercentage && req.CoveragePercent <= 0 {
		return respond.BadRequest(c, "coverage_percent must be positive for a percentage bursary")
	}
	if coverageType == models.CoverageFixedAmount && req.CoverageAmount <= 0 {
		return respond.BadRequest(c, "coverage_amount must be positive for a fixed_amount bursary")
	}

	b := &models.Bursary{
		SchoolID:          auth.SchoolID(c),
		AcademicYearID:    req.AcademicYearID,
		Name:              req.Name,
		Description:       req.Description,
		CoverageType:      coverageType,
		CoveragePercent:   req.CoveragePercent,
		CoverageAmount:    req.CoverageAmount,
		MaxCoverageAmount: req.MaxCoverageAmount,
		MaxRecipients:     req.MaxRecipients,
		EligibleGrades:    req.EligibleGrades,
		IsActive:          true,
	}

	if err := store.Insert(b); err != nil {
		return respond.Err(c, err)
	}

	return respond.Created(c, b)
}

func ListBursariesAPI(c *fiber.Ctx, store *database.BursaryDB) error {
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		return respond.BadRequest(c, "academic_year_id is required")
	}

	list, err := store.List(auth.SchoolID(c), yearID)
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, list)
}

func GetBursaryAPI(c *fiber.Ctx, store *database.BursaryDB) error {
	b, err := store.Get(auth.SchoolID(c), c.Params("id"))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, b)
}

func RetireBursaryAPI(c *fiber.Ctx, store *database.BursaryDB) error {
	if err := store.Retire(auth.SchoolID(c), c.Params("id")); err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, fiber.Map{"message": "Bursary retired"})
}

type assignRequest struct {
	StudentID      string `json:"student_id" validate:"required,uuid"`
	AcademicYearID string `json:"academic_year_id" validate:"required,uuid"`
}

// AssignBursaryAPI grants a recipient slot. A full bursary answers 409;
// the slot claim is atomic so concurrent requests can never oversubscribe.
func AssignBursaryAPI(c *fiber.Ctx, svc *services.BursaryService) error {
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	assignedBy := auth.UserID(c)
	err := svc.Assign(auth.SchoolID(c), c.Params("id"), req.StudentID, req.AcademicYearID, &assignedBy)
	if err != nil {
		return respond.Err(c, err)
	}

	return respond.OK(c, fiber.Map{"message": "Bursary assigned"})
}

func UnassignBursaryAPI(c *fiber.Ctx, svc *services.BursaryService) error {
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	err := svc.Unassign(auth.SchoolID(c), c.Params("id"), req.StudentID, req.AcademicYearID)
	if err != nil {
		return respond.Err(c, err)
	}

	return respond.OK(c, fiber.Map{"message": "Bursary unassigned"})
}
