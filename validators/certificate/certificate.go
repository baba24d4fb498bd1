package certificateValidator

import (
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateCertificationRequest struct {
	Title             string `json:"title" validate:"required,min=3,max=200"`
	BodyTemplate      string `json:"body_template" validate:"required,min=10,max=10000"`
	ValidityDays      int    `json:"validity_days" validate:"gte=0,lte=36500"`
	RequireAllQuizzes bool   `json:"require_all_quizzes"`
	RequiresApproval  bool   `json:"requires_approval"`
	IsActive          *bool  `json:"is_active"`
}

type UpdateCertificationRequest struct {
	Title             *string `json:"title" validate:"omitempty,min=3,max=200"`
	BodyTemplate      *string `json:"body_template" validate:"omitempty,min=10,max=10000"`
	ValidityDays      *int    `json:"validity_days" validate:"omitempty,gte=0,lte=36500"`
	RequireAllQuizzes *bool   `json:"require_all_quizzes"`
	RequiresApproval  *bool   `json:"requires_approval"`
	IsActive          *bool   `json:"is_active"`
}

type PlaceholderRequest struct {
	Key   string `json:"key" validate:"required,max=64,identifier"`
	Value string `json:"value" validate:"required,max=500"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func CreateCertification() fiber.Handler {
	return validators.Body[CreateCertificationRequest]("validatedCertification")
}

func UpdateCertification() fiber.Handler {
	return validators.Body[UpdateCertificationRequest]("validatedCertificationUpdate")
}

func CreatePlaceholder() fiber.Handler {
	return validators.Body[PlaceholderRequest]("validatedPlaceholder")
}

// Reason validates reject and revoke requests.
func Reason() fiber.Handler {
	return validators.Body[ReasonRequest]("validatedReason")
}
