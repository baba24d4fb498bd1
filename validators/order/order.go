package orderValidator

import (
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

type AddCartItemRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

func AddCartItem() fiber.Handler {
	return validators.Body[AddCartItemRequest]("validatedCartItem")
}
