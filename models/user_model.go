package models

import "time"

const (
	RoleStudent = "STUDENT"
	RoleMentor  = "MENTOR"
	RoleAdmin   = "ADMIN"
)

type User struct {
	Base
	FullName  string  `gorm:"size:255;not null" json:"full_name"`
	Email     string  `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string  `gorm:"not null" json:"-"`
	Role      string  `gorm:"size:20;not null;default:'STUDENT';index" json:"role"`
	Bio       *string `gorm:"type:text" json:"bio"`
	AvatarURL *string `gorm:"size:255" json:"avatar_url"`
	IsActive  bool    `gorm:"default:true" json:"is_active"`

	ResetPasswordToken          *string    `gorm:"size:255;uniqueIndex" json:"-"`
	ResetPasswordTokenExpiresAt *time.Time `json:"-"`
}
