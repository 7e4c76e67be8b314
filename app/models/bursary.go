package models

import "time"

// Bursary is a financial-aid program scoped to a school and academic
// year, with a capped number of recipients. CurrentRecipients must never
// exceed MaxRecipients; the counter is only moved by the atomic
// claim/release queries in the bursary store.
type Bursary struct {
	ID             string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID       string       `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	AcademicYearID string       `json:"academic_year_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Name           string       `json:"name" gorm:"not null" validate:"required"`
	Description    *string      `json:"description,omitempty" gorm:"type:text"`
	CoverageType   CoverageType `json:"coverage_type" gorm:"not null;type:varchar(20)" validate:"required,oneof=percentage fixed_amount"`

	// CoveragePercent is set for percentage bursaries, CoverageAmount
	// (minor units) for fixed_amount ones.
	CoveragePercent   float64 `json:"coverage_percent" gorm:"not null;default:0" validate:"gte=0,lte=100"`
	CoverageAmount    int64   `json:"coverage_amount" gorm:"not null;default:0" validate:"gte=0"`
	MaxCoverageAmount *int64  `json:"max_coverage_amount,omitempty"`

	MaxRecipients     int   `json:"max_recipients" gorm:"not null" validate:"required,gt=0"`
	CurrentRecipients int   `json:"current_recipients" gorm:"not null;default:0;check:current_recipients <= max_recipients"`
	EligibleGrades    []int `json:"eligible_grades" gorm:"type:integer[]"`

	IsActive  bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time  `json:"created_at" gorm:"default:now()"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"default:now()"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// RemainingSlots returns how many more students can be assigned.
func (b *Bursary) RemainingSlots() int {
	left := b.MaxRecipients - b.CurrentRecipients
	if left < 0 {
		return 0
	}
	return left
}

// EligibleForGrade reports whether the bursary covers the given grade
// level. An empty eligible-grades list means all grades qualify.
func (b *Bursary) EligibleForGrade(grade int) bool {
	if len(b.EligibleGrades) == 0 {
		return true
	}
	for _, g := range b.EligibleGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// BursaryAssignment links a bursary to a student for an academic year.
type BursaryAssignment struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID       string     `json:"school_id" gorm:"not null;index;type:uuid"`
	BursaryID      string     `json:"bursary_id" gorm:"not null;index;type:uuid"`
	StudentID      string     `json:"student_id" gorm:"not null;index;type:uuid"`
	AcademicYearID string     `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	AssignedBy     *string    `json:"assigned_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at" gorm:"default:now()"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}
