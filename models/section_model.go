package models

import "github.com/google/uuid"

type Section struct {
	Base
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string    `gorm:"size:255;not null" json:"title"`
	Position int       `gorm:"not null;default:0" json:"position"`

	Materials []Material `gorm:"foreignKey:SectionID" json:"materials,omitempty"`
}
