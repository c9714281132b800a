package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MentorPending  = "PENDING"
	MentorApproved = "APPROVED"
	MentorRejected = "REJECTED"
)

type MentorProfile struct {
	Base
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Headline        string     `gorm:"size:255;not null" json:"headline"`
	Bio             string     `gorm:"type:text" json:"bio"`
	Expertise       string     `gorm:"size:255" json:"expertise"`
	Status          string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	ReviewedAt      *time.Time `json:"reviewed_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
