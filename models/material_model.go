package models

import "github.com/google/uuid"

const (
	MaterialVideo   = "VIDEO"
	MaterialArticle = "ARTICLE"
	MaterialFile    = "FILE"
	MaterialQuiz    = "QUIZ"
)

type Material struct {
	Base
	SectionID       uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Type            string    `gorm:"size:20;not null" json:"type"`
	ContentURL      *string   `gorm:"type:text" json:"content_url,omitempty"`
	Body            *string   `gorm:"type:text" json:"body,omitempty"`
	DurationSeconds int       `gorm:"default:0" json:"duration_seconds"`
	Position        int       `gorm:"not null;default:0" json:"position"`
	IsPreview       bool      `gorm:"default:false" json:"is_preview"`
}
