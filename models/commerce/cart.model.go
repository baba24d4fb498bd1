package commerce

import (
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Cart is a user's single shopping cart
type Cart struct {
	gorm.Model
	UserID uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// CartItem keeps the price seen when the course was added. Checkout
// charges the current course price.
type CartItem struct {
	gorm.Model
	CartID     uint                 `json:"cart_id" gorm:"uniqueIndex:idx_cart_course;not null"`
	CourseID   uint                 `json:"course_id" gorm:"uniqueIndex:idx_cart_course;not null"`
	PriceCents int64                `json:"price_cents"`
	Course     *courseModels.Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}
