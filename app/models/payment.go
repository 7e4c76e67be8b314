package models

import "time"

// Payment is an append-only ledger entry against a student fee snapshot.
// Refunds are modeled as new entries pointing back at the original via
// RefundOf; entries are never updated beyond status transitions and are
// never hard-deleted, so the ledger doubles as the audit trail.
type Payment struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	SchoolID   string  `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	SnapshotID string  `json:"snapshot_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	StudentID  string  `json:"student_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`

	// Amount is always positive, in minor units; a refund's negative
	// effect on the balance comes from RefundOf being set.
	Amount   int64  `json:"amount" gorm:"not null;check:amount > 0" validate:"required,gt=0"`
	Currency string `json:"currency" gorm:"not null"`

	Method        PaymentMethod `json:"method" gorm:"not null;type:varchar(20)" validate:"required"`
	PaymentDate   time.Time     `json:"payment_date" gorm:"not null;index" validate:"required"`
	ReceiptNumber string        `json:"receipt_number" gorm:"uniqueIndex;not null"`
	Status        PaymentStatus `json:"status" gorm:"not null;default:'completed';index;type:varchar(20)"`

	RefundOf *string `json:"refund_of,omitempty" gorm:"type:uuid;index"`
	Reason   *string `json:"reason,omitempty" gorm:"type:text"`

	RecordedBy *string `json:"recorded_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsRefund reports whether this entry reverses part of another payment.
func (p *Payment) IsRefund() bool {
	return p.RefundOf != nil
}

// LedgerEffect returns the entry's signed effect on total_paid.
func (p *Payment) LedgerEffect() int64 {
	if p.IsRefund() {
		return -p.Amount
	}
	return p.Amount
}
