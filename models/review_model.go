package models

import "github.com/google/uuid"

type Review struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course;index" json:"course_id"`
	Rating   int       `gorm:"not null" json:"rating"`
	Comment  string    `gorm:"type:text" json:"comment"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
