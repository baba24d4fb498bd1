package models

import (
	"time"

	"gorm.io/gorm"
)

// Session backs every issued access token. A token is only honoured while
// its session is neither revoked nor expired.
type Session struct {
	gorm.Model
	SessionID string     `json:"session_id" gorm:"uniqueIndex;size:36;not null"`
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	IPAddress string     `json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (s *Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(t)
}
