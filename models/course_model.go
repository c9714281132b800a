package models

import (
	"time"

	"github.com/google/uuid"
)

type CourseStatus string

const (
	CourseDraft         CourseStatus = "DRAFT"
	CoursePendingReview CourseStatus = "PENDING_REVIEW"
	CoursePublished     CourseStatus = "PUBLISHED"
	CourseArchived      CourseStatus = "ARCHIVED"
)

var courseTransitions = map[CourseStatus][]CourseStatus{
	CourseDraft:         {CoursePendingReview, CourseArchived},
	CoursePendingReview: {CoursePublished, CourseDraft},
	CoursePublished:     {CourseArchived},
	CourseArchived:      {CourseDraft},
}

// CanTransitionTo reports whether a course in status s may move to next.
func (s CourseStatus) CanTransitionTo(next CourseStatus) bool {
	for _, allowed := range courseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s CourseStatus) Valid() bool {
	_, ok := courseTransitions[s]
	return ok
}

const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"
)

type Course struct {
	Base
	MentorID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"mentor_id"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Slug            string       `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description     string       `gorm:"type:text" json:"description"`
	Category        string       `gorm:"size:100;index" json:"category"`
	Level           string       `gorm:"size:20;default:'BEGINNER'" json:"level"`
	Price           float64      `gorm:"type:numeric(10,2);default:0" json:"price"`
	Currency        string       `gorm:"size:3;default:'USD'" json:"currency"`
	ThumbnailURL    *string      `gorm:"size:255" json:"thumbnail_url"`
	Status          CourseStatus `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`
	RejectionReason *string      `gorm:"type:text" json:"rejection_reason"`
	SubmittedAt     *time.Time   `json:"submitted_at"`
	PublishedAt     *time.Time   `json:"published_at"`
	AvgRating       float64      `gorm:"default:0" json:"avg_rating"`
	ReviewCount     int          `gorm:"default:0" json:"review_count"`

	Mentor   *User     `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	Sections []Section `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

func (c Course) IsFree() bool {
	return c.Price <= 0
}
