package commerce

import (
	"time"

	"lms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderPending   = "PENDING"
	OrderPaid      = "PAID"
	OrderFailed    = "FAILED"
	OrderCancelled = "CANCELLED"
)

type Order struct {
	gorm.Model
	OrderNumber      string       `json:"order_number" gorm:"uniqueIndex;size:40;not null"`
	UserID           uint         `json:"user_id" gorm:"index;not null"`
	Status           string       `json:"status" gorm:"default:'PENDING'"` // PENDING, PAID, FAILED, CANCELLED
	TotalCents       int64        `json:"total_cents"`
	Currency         string       `json:"currency" gorm:"size:3"`
	PaymentReference string       `json:"payment_reference" gorm:"index"`
	PaymentURL       string       `json:"payment_url"`
	PaidAt           *time.Time   `json:"paid_at"`
	Items            []OrderItem  `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User             *models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// OrderItem keeps the course title and a snapshot of the course as it was sold.
type OrderItem struct {
	gorm.Model
	OrderID     uint           `json:"order_id" gorm:"index;not null"`
	CourseID    uint           `json:"course_id" gorm:"index;not null"`
	CourseTitle string         `json:"course_title"`
	PriceCents  int64          `json:"price_cents"`
	Snapshot    datatypes.JSON `json:"snapshot"`
}
