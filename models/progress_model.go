package models

import (
	"time"

	"github.com/google/uuid"
)

type Progress struct {
	Base
	UserID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_material" json:"user_id"`
	MaterialID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_material" json:"material_id"`
	CourseID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Completed           bool       `gorm:"default:false" json:"completed"`
	CompletedAt         *time.Time `json:"completed_at"`
	LastPositionSeconds int        `gorm:"default:0" json:"last_position_seconds"`
}
