package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordReset stores only the sha256 of the token mailed to the user.
type PasswordReset struct {
	gorm.Model
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
}

func (p *PasswordReset) Usable(t time.Time) bool {
	return p.UsedAt == nil && p.ExpiresAt.After(t)
}
