package course

import "gorm.io/gorm"

const (
	ContentText  = "TEXT"
	ContentVideo = "VIDEO"
	ContentFile  = "FILE"
)

// Lecture is a unit of content within a chapter
type Lecture struct {
	gorm.Model
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	ChapterID       uint   `json:"chapter_id" gorm:"index;not null"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ContentType     string `json:"content_type" gorm:"default:'TEXT'"` // TEXT, VIDEO, FILE
	TextContent     string `json:"text_content,omitempty" gorm:"type:text"`
	VideoURL        string `json:"video_url,omitempty"`
	FileURL         string `json:"file_url,omitempty"`
	DurationMinutes int    `json:"duration_minutes" gorm:"default:0"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"`
	IsPreview       bool   `json:"is_preview" gorm:"default:false"`
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	IsDeleted       bool   `json:"-" gorm:"default:false"`
}

// Outline strips the lecture body, leaving only what a catalog visitor may see.
func (l Lecture) Outline() Lecture {
	l.TextContent = ""
	l.VideoURL = ""
	l.FileURL = ""
	return l
}

// LectureCompletion tracks a user's completion of a lecture
type LectureCompletion struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_completion_user_lecture;not null"`
	CourseID  uint `json:"course_id" gorm:"index;not null"`
	LectureID uint `json:"lecture_id" gorm:"uniqueIndex:idx_completion_user_lecture;not null"`
}
