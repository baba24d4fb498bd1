package course

import "gorm.io/gorm"

const (
	StatusDraft    = "DRAFT"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title         string `json:"title"`
	Slug          string `json:"slug" gorm:"uniqueIndex;size:191"`
	Description   string `json:"description" gorm:"type:text"`
	Author        string `json:"author"`
	Category      string `json:"category" gorm:"index"`
	Level         string `json:"level"`
	PriceCents    int64  `json:"price_cents" gorm:"default:0"`
	Currency      string `json:"currency" gorm:"size:3"`
	DurationHours int64  `json:"duration_hours" gorm:"default:0"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Status        string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	IsPublished   bool   `json:"is_published" gorm:"default:false"`
	IsDeleted     bool   `json:"-" gorm:"default:false"`
}

func (c *Course) IsFree() bool {
	return c.PriceCents <= 0
}
