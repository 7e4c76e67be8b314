package services

import (
	"greenschool/app/models"
)

// FeeCatalog resolves published tuition pricing. It is a thin guard over
// the structure store: grade bounds are validated here so a bad grade
// surfaces as a validation error rather than a silent not-found.
type FeeCatalog struct {
	Structures StructureStore
}

// Resolve returns the active fee structure for (school, grade, year).
// A missing structure means finance has not published pricing for the
// tuple yet; it is a hard error, never defaulted.
func (c *FeeCatalog) Resolve(schoolID string, gradeLevel int, academicYearID string) (*models.FeeStructure, error) {
	if gradeLevel < 1 || gradeLevel > 7 {
		return nil, ErrValidation
	}
	return c.Structures.Resolve(schoolID, gradeLevel, academicYearID)
}
