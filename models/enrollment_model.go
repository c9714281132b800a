package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentCancelled = "CANCELLED"
)

type Enrollment struct {
	Base
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	Status          string     `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	ProgressPercent float64    `gorm:"default:0" json:"progress_percent"`
	CompletedAt     *time.Time `json:"completed_at"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// HasAccess reports whether the enrollment grants access to course content.
func (e Enrollment) HasAccess() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}
