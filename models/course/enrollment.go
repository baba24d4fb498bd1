package course

import (
	"time"

	"lms/models"

	"gorm.io/gorm"
)

const (
	EnrollmentEnrolled   = "ENROLLED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
)

// Enrollment tracks a user's enrollment in a course with progress
type Enrollment struct {
	gorm.Model
	UserID            uint         `json:"user_id" gorm:"index;not null"`
	CourseID          uint         `json:"course_id" gorm:"index;not null"`
	OrderID           *uint        `json:"order_id"`
	Status            string       `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, IN_PROGRESS, COMPLETED
	Progress          float64      `json:"progress" gorm:"default:0"`        // Completion percentage (0-100)
	CompletedLectures int          `json:"completed_lectures" gorm:"default:0"`
	TotalLectures     int          `json:"total_lectures" gorm:"default:0"`
	CompletedAt       *time.Time   `json:"completed_at"`
	IsDeleted         bool         `json:"-" gorm:"default:false"`
	Course            *Course      `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User              *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
