package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionSingle   = "SINGLE"
	QuestionMultiple = "MULTIPLE"
)

// Questionnaire is a quiz attached to a course, optionally to one chapter
type Questionnaire struct {
	gorm.Model
	CourseID         uint   `json:"course_id" gorm:"index;not null"`
	ChapterID        *uint  `json:"chapter_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	PassPercent      int    `json:"pass_percent"`
	MaxAttempts      int    `json:"max_attempts" gorm:"default:0"` // 0 means unlimited
	TimeLimitMinutes int    `json:"time_limit_minutes" gorm:"default:0"`
	IsPublished      bool   `json:"is_published" gorm:"default:false"`
	IsDeleted        bool   `json:"-" gorm:"default:false"`
}

// Question is a single or multiple choice question. CorrectOptions holds
// indexes into Options and is never sent to learners.
type Question struct {
	gorm.Model
	QuestionnaireID uint                        `json:"questionnaire_id" gorm:"index;not null"`
	Text            string                      `json:"text" gorm:"type:text"`
	QuestionType    string                      `json:"question_type" gorm:"default:'SINGLE'"`
	Options         datatypes.JSONSlice[string] `json:"options"`
	CorrectOptions  datatypes.JSONSlice[int]    `json:"-"`
	Points          int                         `json:"points" gorm:"default:1"`
	OrderIndex      int                         `json:"order_index" gorm:"default:0"`
	IsDeleted       bool                        `json:"-" gorm:"default:false"`
}

// QuizAttempt is a graded submission of a questionnaire
type QuizAttempt struct {
	gorm.Model
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	CourseID        uint           `json:"course_id" gorm:"index;not null"`
	QuestionnaireID uint           `json:"questionnaire_id" gorm:"index;not null"`
	Answers         datatypes.JSON `json:"answers"`
	Score           int            `json:"score"`
	MaxScore        int            `json:"max_score"`
	Percent         float64        `json:"percent"`
	Passed          bool           `json:"passed" gorm:"default:false"`
	AttemptNumber   int            `json:"attempt_number" gorm:"default:1"`
}
