package models

import "time"

// DomainEvent is an outbox row consumed by the external notification and
// reporting collaborators. Payload is a JSON document persisted as jsonb.
type DomainEvent struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID    string     `json:"school_id" gorm:"not null;index;type:uuid"`
	Type        EventType  `json:"type" gorm:"not null;index;type:varchar(40)"`
	Payload     []byte     `json:"payload" gorm:"type:jsonb"`
	OccurredAt  time.Time  `json:"occurred_at" gorm:"not null;index"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
}
