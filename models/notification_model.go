package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyMentorApplication = "MENTOR_APPLICATION"
	NotifyMentorDecision    = "MENTOR_DECISION"
	NotifyCourseReview      = "COURSE_REVIEW"
	NotifyCourseDecision    = "COURSE_DECISION"
	NotifyEnrollment        = "ENROLLMENT"
	NotifyNewReview         = "NEW_REVIEW"
	NotifyCertificate       = "CERTIFICATE"
	NotifyPayment           = "PAYMENT"
	NotifyCourseUpdate      = "COURSE_UPDATE"
)

type Notification struct {
	Base
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    string     `gorm:"size:50;not null" json:"type"`
	Title   string     `gorm:"size:255;not null" json:"title"`
	Message string     `gorm:"type:text" json:"message"`
	Link    *string    `gorm:"size:255" json:"link"`
	ReadAt  *time.Time `gorm:"index" json:"read_at"`
}
