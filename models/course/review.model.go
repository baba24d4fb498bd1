package course

import (
	"lms/models"

	"gorm.io/gorm"
)

// Review is one learner's rating of a course. A user reviews a course once;
// posting again replaces the earlier review.
type Review struct {
	gorm.Model
	UserID    uint         `json:"user_id" gorm:"uniqueIndex:idx_review_user_course;not null"`
	CourseID  uint         `json:"course_id" gorm:"uniqueIndex:idx_review_user_course;not null"`
	Rating    int          `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"` // 1–5 rating
	Comment   string       `json:"comment" gorm:"type:text"`
	IsDeleted bool         `json:"-" gorm:"default:false"`
	User      *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
