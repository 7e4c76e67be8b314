package models

import "time"

// StudentFeeSnapshot is the immutable computed fee record for one
// student, school and academic year. Component amounts are computed once
// by the fee calculator; TotalPaid, BalanceDue and Status are moved only
// by the payment ledger. A structural change (new frequency, bursary,
// pricing) supersedes the snapshot with a fresh one instead of mutating
// it, so the history of what a family was asked to pay is preserved.
type StudentFeeSnapshot struct {
	ID             string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID       string  `json:"school_id" gorm:"not null;index;type:uuid"`
	StudentID      string  `json:"student_id" gorm:"not null;index;type:uuid"`
	AcademicYearID string  `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	FeeStructureID string  `json:"fee_structure_id" gorm:"not null;type:uuid"`
	BursaryID      *string `json:"bursary_id,omitempty" gorm:"type:uuid"`

	PaymentFrequency PaymentFrequency `json:"payment_frequency" gorm:"not null;type:varchar(10)"`
	Currency         string           `json:"currency" gorm:"not null"`

	// Component amounts, minor units.
	BaseTuition  int64 `json:"base_tuition" gorm:"not null"`
	ActivityFees int64 `json:"activity_fees" gorm:"not null;default:0"`
	MaterialFees int64 `json:"material_fees" gorm:"not null;default:0"`
	OtherFees    int64 `json:"other_fees" gorm:"not null;default:0"`

	// Applied discounts, minor units.
	PaymentDiscount int64 `json:"payment_discount" gorm:"not null;default:0"`
	SiblingDiscount int64 `json:"sibling_discount" gorm:"not null;default:0"`
	SiblingTier     int   `json:"sibling_tier" gorm:"not null;default:0"`
	BursaryAmount   int64 `json:"bursary_amount" gorm:"not null;default:0"`

	// Derived totals. total_amount_due = total_before_discounts -
	// total_discounts - bursary_amount, clamped at zero.
	TotalBeforeDiscounts int64 `json:"total_before_discounts" gorm:"not null"`
	TotalDiscounts       int64 `json:"total_discounts" gorm:"not null"`
	TotalAmountDue       int64 `json:"total_amount_due" gorm:"not null;check:total_amount_due >= 0"`

	// Ledger-derived; mutated only through the payment ledger.
	TotalPaid  int64     `json:"total_paid" gorm:"not null;default:0"`
	BalanceDue int64     `json:"balance_due" gorm:"not null;check:balance_due >= 0"`
	Status     FeeStatus `json:"status" gorm:"not null;default:'pending';index;type:varchar(10)"`
	DueDate    time.Time `json:"due_date" gorm:"not null;type:date"`

	// Overdue reminder dedupe: the sweep fires at most once per day.
	LastOverdueNotified *time.Time `json:"last_overdue_notified,omitempty" gorm:"type:date"`

	// Optimistic lock; compared-and-swapped on every ledger update.
	Version int `json:"version" gorm:"not null;default:1"`

	// Supersession pointer to the snapshot that replaced this one.
	SupersededBy *string `json:"superseded_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time  `json:"created_at" gorm:"default:now()"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"default:now()"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// IsWaived reports whether the snapshot was administratively waived.
func (s *StudentFeeSnapshot) IsWaived() bool { return s.Status == FeeWaived }

// IsActive reports whether this is the live snapshot for its key.
func (s *StudentFeeSnapshot) IsActive() bool {
	return s.SupersededBy == nil && s.DeletedAt == nil
}

// DeriveFeeStatus returns the settlement status implied by the ledger
// totals alone. Overdue and waived are set by other operations; a
// payment against an overdue snapshot moves it back through this
// derivation (out of overdue into partial or paid).
func DeriveFeeStatus(totalDue, totalPaid int64) FeeStatus {
	switch {
	case totalPaid >= totalDue:
		return FeePaid
	case totalPaid > 0:
		return FeePartial
	default:
		return FeePending
	}
}

// ApplyLedgerTotals sets the ledger-derived fields from a new paid
// total, keeping the accounting identity balance = due - paid.
func (s *StudentFeeSnapshot) ApplyLedgerTotals(totalPaid int64) {
	s.TotalPaid = totalPaid
	s.BalanceDue = s.TotalAmountDue - totalPaid
	s.Status = DeriveFeeStatus(s.TotalAmountDue, totalPaid)
}
