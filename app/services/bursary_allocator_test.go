package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"greenschool/app/models"
)

func TestAllocateBursaryPercentage(t *testing.T) {
	base := models.NewMoney(8100, "USD")

	b := &models.Bursary{CoverageType: models.CoveragePercentage, CoveragePercent: 50}
	assert.Equal(t, int64(4050), AllocateBursary(b, base).Amount)

	// Cap kicks in below the raw percentage.
	cap := int64(3000)
	b.MaxCoverageAmount = &cap
	assert.Equal(t, int64(3000), AllocateBursary(b, base).Amount)

	// Full coverage.
	b.MaxCoverageAmount = nil
	b.CoveragePercent = 100
	assert.Equal(t, int64(8100), AllocateBursary(b, base).Amount)
}

func TestAllocateBursaryFixedAmount(t *testing.T) {
	base := models.NewMoney(8100, "USD")

	b := &models.Bursary{CoverageType: models.CoverageFixedAmount, CoverageAmount: 2000}
	assert.Equal(t, int64(2000), AllocateBursary(b, base).Amount)

	// A fixed amount can never exceed the base it offsets.
	b.CoverageAmount = 20000
	assert.Equal(t, int64(8100), AllocateBursary(b, base).Amount)
}

func TestAllocateBursaryZeroBase(t *testing.T) {
	b := &models.Bursary{CoverageType: models.CoveragePercentage, CoveragePercent: 50}

	got := AllocateBursary(b, models.NewMoney(0, "USD"))
	assert.True(t, got.IsZero())

	got = AllocateBursary(b, models.NewMoney(-100, "USD"))
	assert.True(t, got.IsZero())
}
