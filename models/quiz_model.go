package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuizQuestion struct {
	Base
	MaterialID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"material_id"`
	Prompt        string         `gorm:"type:text;not null" json:"prompt"`
	Options       datatypes.JSON `json:"options"`
	CorrectOption int            `gorm:"not null" json:"correct_option"`
	Position      int            `gorm:"default:0" json:"position"`
}

// OptionList decodes the JSON options column.
func (q QuizQuestion) OptionList() []string {
	var opts []string
	if len(q.Options) == 0 {
		return opts
	}
	_ = json.Unmarshal(q.Options, &opts)
	return opts
}

type QuizAttempt struct {
	Base
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	MaterialID uuid.UUID      `gorm:"type:uuid;not null;index" json:"material_id"`
	Answers    datatypes.JSON `json:"answers"`
	Score      float64        `gorm:"not null" json:"score"`
	Passed     bool           `gorm:"default:false" json:"passed"`
}
