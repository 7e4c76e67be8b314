package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"greenschool/app/models"
)

func sibling(id string, enrolled string) *models.Student {
	d, _ := time.Parse("2006-01-02", enrolled)
	return &models.Student{ID: id, EnrollmentDate: d}
}

func TestResolveSiblingTier(t *testing.T) {
	a := sibling("a", "2020-01-15")
	b := sibling("b", "2022-01-15")
	c := sibling("c", "2023-01-15")

	assert.Equal(t, 0, ResolveSiblingTier([]*models.Student{a, b, c}, "a"))
	assert.Equal(t, 1, ResolveSiblingTier([]*models.Student{a, b, c}, "b"))
	assert.Equal(t, 2, ResolveSiblingTier([]*models.Student{a, b, c}, "c"))
}

func TestResolveSiblingTierOrderInvariant(t *testing.T) {
	a := sibling("a", "2020-01-15")
	b := sibling("b", "2022-01-15")
	c := sibling("c", "2023-01-15")

	orderings := [][]*models.Student{
		{a, b, c},
		{c, b, a},
		{b, a, c},
		{c, a, b},
	}
	for _, siblings := range orderings {
		assert.Equal(t, 0, ResolveSiblingTier(siblings, "a"))
		assert.Equal(t, 1, ResolveSiblingTier(siblings, "b"))
		assert.Equal(t, 2, ResolveSiblingTier(siblings, "c"))
	}
}

func TestResolveSiblingTierTieBreak(t *testing.T) {
	// Same enrollment date: the lower id deterministically wins the
	// older position.
	x := sibling("x", "2021-09-01")
	y := sibling("y", "2021-09-01")

	assert.Equal(t, 0, ResolveSiblingTier([]*models.Student{y, x}, "x"))
	assert.Equal(t, 1, ResolveSiblingTier([]*models.Student{y, x}, "y"))
}

func TestResolveSiblingTierEdgeCases(t *testing.T) {
	a := sibling("a", "2020-01-15")
	b := sibling("b", "2022-01-15")

	// An only child never gets a sibling discount.
	assert.Equal(t, 0, ResolveSiblingTier([]*models.Student{a}, "a"))
	assert.Equal(t, 0, ResolveSiblingTier(nil, "a"))

	// A target that is not among the guardian's children gets tier 0.
	assert.Equal(t, 0, ResolveSiblingTier([]*models.Student{a, b}, "z"))
}

func TestResolveSiblingTierCapsAtFourPlus(t *testing.T) {
	family := []*models.Student{
		sibling("a", "2018-01-01"),
		sibling("b", "2019-01-01"),
		sibling("c", "2020-01-01"),
		sibling("d", "2021-01-01"),
		sibling("e", "2022-01-01"),
		sibling("f", "2023-01-01"),
	}

	assert.Equal(t, 3, ResolveSiblingTier(family, "d"))
	assert.Equal(t, 3, ResolveSiblingTier(family, "e"))
	assert.Equal(t, 3, ResolveSiblingTier(family, "f"))
}
