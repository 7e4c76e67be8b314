package models

import "time"

// FeeStructure holds the published tuition pricing for one school, grade
// level and academic year. Rows are immutable once referenced by a
// snapshot; new pricing for a new academic year means a new row.
type FeeStructure struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID       string `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	GradeLevel     int    `json:"grade_level" gorm:"not null;check:grade_level BETWEEN 1 AND 7" validate:"required,min=1,max=7"`
	AcademicYearID string `json:"academic_year_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Currency       string `json:"currency" gorm:"not null;default:'USD'"`

	// Per-frequency base tuition, in minor units. Each amount is
	// configured independently; monthly is not assumed to be yearly/12.
	YearlyAmount  int64 `json:"yearly_amount" gorm:"not null" validate:"gte=0"`
	MonthlyAmount int64 `json:"monthly_amount" gorm:"not null" validate:"gte=0"`
	WeeklyAmount  int64 `json:"weekly_amount" gorm:"not null" validate:"gte=0"`

	// Discount percent applied for choosing a payment frequency.
	YearlyDiscountPercent  float64 `json:"yearly_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	MonthlyDiscountPercent float64 `json:"monthly_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	WeeklyDiscountPercent  float64 `json:"weekly_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`

	// Sibling discount percent by ordinal position within the family.
	Sibling2DiscountPercent     float64 `json:"sibling_2_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	Sibling3DiscountPercent     float64 `json:"sibling_3_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	Sibling4PlusDiscountPercent float64 `json:"sibling_4_plus_discount_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`

	// When false, every non-oldest sibling gets the sibling_2 percent
	// instead of the percent matching their own ordinal position.
	ApplySiblingToAll bool `json:"apply_sibling_to_all" gorm:"not null;default:true"`

	MaterialFees int64 `json:"material_fees" gorm:"not null;default:0" validate:"gte=0"`
	OtherFees    int64 `json:"other_fees" gorm:"not null;default:0" validate:"gte=0"`

	IsActive  bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time  `json:"created_at" gorm:"default:now()"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"default:now()"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// AmountFor returns the base tuition for the given billing frequency.
// A zero configured amount means the school does not offer the frequency.
func (fs *FeeStructure) AmountFor(f PaymentFrequency) (Money, bool) {
	var minor int64
	switch f {
	case FrequencyYearly:
		minor = fs.YearlyAmount
	case FrequencyMonthly:
		minor = fs.MonthlyAmount
	case FrequencyWeekly:
		minor = fs.WeeklyAmount
	default:
		return Money{}, false
	}
	if minor <= 0 {
		return Money{}, false
	}
	return NewMoney(minor, fs.Currency), true
}

// DiscountPercentFor returns the payment-frequency discount percent.
func (fs *FeeStructure) DiscountPercentFor(f PaymentFrequency) float64 {
	switch f {
	case FrequencyYearly:
		return fs.YearlyDiscountPercent
	case FrequencyMonthly:
		return fs.MonthlyDiscountPercent
	case FrequencyWeekly:
		return fs.WeeklyDiscountPercent
	}
	return 0
}

// SiblingPercentForTier returns the sibling discount percent for an
// ordinal tier (0 = oldest enrolled sibling, 1 = second, ...). Tier 0
// never receives a discount. With ApplySiblingToAll disabled, all
// younger siblings receive the flat sibling_2 percent.
func (fs *FeeStructure) SiblingPercentForTier(tier int) float64 {
	if tier <= 0 {
		return 0
	}
	if !fs.ApplySiblingToAll {
		return fs.Sibling2DiscountPercent
	}
	switch tier {
	case 1:
		return fs.Sibling2DiscountPercent
	case 2:
		return fs.Sibling3DiscountPercent
	default:
		return fs.Sibling4PlusDiscountPercent
	}
}
