package models

import (
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	Base
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	CertificateNumber string    `gorm:"size:32;not null;uniqueIndex" json:"certificate_number"`
	CertificateURL    string    `gorm:"type:text" json:"certificate_url"`
	IssuedAt          time.Time `gorm:"not null" json:"issued_at"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
