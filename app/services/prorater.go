package services

import (
	"time"

	"greenschool/app/models"
)

// ProrateActivityFee scales an activity fee to the fraction of the
// billing period remaining at enrollment. Fees with proration disabled
// are charged in full regardless of when the student joined. Rounding is
// banker's rounding to the minor unit, so bulk proration across a whole
// school does not drift in either direction.
func ProrateActivityFee(fee models.Money, allowProrate bool, periodStart, periodEnd, enrolledAt time.Time) models.Money {
	if !allowProrate {
		return fee
	}
	if !enrolledAt.After(periodStart) {
		return fee
	}
	if enrolledAt.After(periodEnd) {
		return fee.Zero()
	}

	total := daysBetween(periodStart, periodEnd)
	remaining := daysBetween(enrolledAt, periodEnd)
	return fee.ProrateFraction(remaining, total)
}

// daysBetween counts inclusive calendar days from a to b.
func daysBetween(a, b time.Time) int64 {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int64(b.Sub(a).Hours()/24) + 1
}
