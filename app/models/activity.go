package models

import "time"

// EnrolledActivity is the joined view of a student's activity enrollment
// and its fee configuration, as read from the activity collaborator.
type EnrolledActivity struct {
	ActivityID   string    `json:"activity_id"`
	Name         string    `json:"name"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	AllowProrate bool      `json:"allow_prorate"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// Fee returns the activity's configured fee as Money.
func (a *EnrolledActivity) Fee() Money {
	return NewMoney(a.Amount, a.Currency)
}
