package services

import (
	"sort"

	"greenschool/app/models"
)

// ResolveSiblingTier determines the target student's ordinal position
// among the family's enrolled children. Siblings are ordered by
// enrollment date, ties broken by student id, so the tier a student
// receives never depends on the order rows came back from the database.
// Position 0 is the first-enrolled child and gets no sibling discount;
// positions beyond 3 share the 4-plus tier.
func ResolveSiblingTier(siblings []*models.Student, targetID string) int {
	if len(siblings) < 2 {
		return 0
	}

	ordered := make([]*models.Student, len(siblings))
	copy(ordered, siblings)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.EnrollmentDate.Equal(b.EnrollmentDate) {
			return a.EnrollmentDate.Before(b.EnrollmentDate)
		}
		return a.ID < b.ID
	})

	for pos, s := range ordered {
		if s.ID == targetID {
			if pos > 3 {
				return 3
			}
			return pos
		}
	}

	// Target not among the guardian's children: treat as an only child.
	return 0
}
