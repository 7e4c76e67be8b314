package services

import (
	"errors"
	"fmt"
)

// Typed errors surfaced by the fee engine. The route layer maps these to
// HTTP status codes; nothing here is retried implicitly except version
// conflicts, which the services retry a bounded number of times before
// surfacing ErrConflict.
var (
	ErrStructureNotFound = errors.New("fee structure not found")
	ErrSnapshotNotFound  = errors.New("fee snapshot not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrBursaryNotFound   = errors.New("bursary not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrYearNotFound      = errors.New("academic year not found")

	ErrInvalidFrequency = errors.New("payment frequency not offered by fee structure")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrOverpayment      = errors.New("payment exceeds balance due")
	ErrValidation       = errors.New("validation failed")

	ErrConflict = errors.New("concurrent update conflict")
)

// CapacityError is returned when a bursary has no remaining slots. It
// carries the capacity detail so the caller can offer alternatives.
type CapacityError struct {
	BursaryID     string
	MaxRecipients int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("bursary %s is at capacity (%d recipients)", e.BursaryID, e.MaxRecipients)
}

// InvariantError marks a state that should be unreachable: an
// overpayment past the guard, a negative balance, mismatched currencies
// inside one school's data. It is always a programming or data bug and
// is never silently corrected.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Detail
}

// IsNotFound reports whether err is one of the missing-entity errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStructureNotFound) ||
		errors.Is(err, ErrSnapshotNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrBursaryNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrYearNotFound)
}
