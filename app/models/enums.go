package models

// PaymentFrequency defines how a student's tuition is billed.
type PaymentFrequency string

const (
	FrequencyYearly  PaymentFrequency = "yearly"
	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyWeekly  PaymentFrequency = "weekly"
)

// Valid reports whether f is one of the supported billing frequencies.
func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyYearly, FrequencyMonthly, FrequencyWeekly:
		return true
	}
	return false
}

// FeeStatus defines the settlement state of a student fee snapshot.
type FeeStatus string

const (
	FeePending FeeStatus = "pending"
	FeePartial FeeStatus = "partial"
	FeePaid    FeeStatus = "paid"
	FeeOverdue FeeStatus = "overdue"
	FeeWaived  FeeStatus = "waived"
)

// PaymentStatus defines the status of a payment ledger entry.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentMethod defines how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCard         PaymentMethod = "card"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCard:
		return true
	}
	return false
}

// CoverageType defines how a bursary's coverage is expressed.
type CoverageType string

const (
	CoveragePercentage  CoverageType = "percentage"
	CoverageFixedAmount CoverageType = "fixed_amount"
)

// Gender defines the possible gender values for a student.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

// EventType identifies a domain event emitted to the outbox.
type EventType string

const (
	EventPaymentRecorded        EventType = "payment.recorded"
	EventFeeOverdue             EventType = "fee.overdue"
	EventBursaryCapacityReached EventType = "bursary.capacity_reached"
)
