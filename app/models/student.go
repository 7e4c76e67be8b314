package models

import "time"

// Student is the read-only shape this core consumes from the identity
// collaborator: enough to scope fees, order siblings and pick the grade
// pricing. Enrollment and guardianship records are owned elsewhere.
type Student struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SchoolID       string     `json:"school_id" gorm:"not null;index;type:uuid"`
	StudentCode    string     `json:"student_code" gorm:"not null;index"`
	FirstName      string     `json:"first_name" gorm:"not null"`
	LastName       string     `json:"last_name" gorm:"not null"`
	Gender         Gender     `json:"gender" gorm:"type:varchar(10)"`
	GradeLevel     int        `json:"grade_level" gorm:"not null"`
	GuardianID     *string    `json:"guardian_id,omitempty" gorm:"index;type:uuid"`
	EnrollmentDate time.Time  `json:"enrollment_date" gorm:"not null;type:date"`
	IsActive       bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// FullName returns the student's display name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
