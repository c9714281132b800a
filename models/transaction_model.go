package models

import "github.com/google/uuid"

const (
	TransactionPending  = "PENDING"
	TransactionSuccess  = "SUCCESS"
	TransactionFailed   = "FAILED"
	TransactionRefunded = "REFUNDED"
)

const (
	ProviderPayPal = "paypal"
	ProviderFree   = "free"
)

type Transaction struct {
	Base
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Amount          float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency        string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Provider        string    `gorm:"size:50;not null" json:"provider"`
	ProviderOrderID *string   `gorm:"size:255;uniqueIndex" json:"provider_order_id"`
	Status          string    `gorm:"size:20;not null;index" json:"status"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
