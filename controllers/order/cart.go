package orderController

import (
	"errors"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models/commerce"
	courseModels "lms/models/course"
	"lms/validators"
	orderValidator "lms/validators/order"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func getOrCreateCart(tx *gorm.DB, userID uint) (*commerce.Cart, error) {
	var cart commerce.Cart
	if err := tx.Where("user_id = ?", userID).FirstOrCreate(&cart, commerce.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func loadCart(userID uint) (*commerce.Cart, error) {
	db := database.Database.Db
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return nil, err
	}
	if err := db.Preload("Course").Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func cartView(cart *commerce.Cart) fiber.Map {
	var total int64
	for _, item := range cart.Items {
		if item.Course != nil {
			total += item.Course.PriceCents
		} else {
			total += item.PriceCents
		}
	}
	return fiber.Map{
		"cart":        cart,
		"item_count":  len(cart.Items),
		"total_cents": total,
	}
}

func GetCart(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cart, err := loadCart(userId)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error loading cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch cart!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cart fetched successfully!", cartView(cart))
}

func AddCartItem(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCartItem").(*orderValidator.AddCartItemRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ? AND status = ?",
		reqData.CourseID, false, true, courseModels.StatusActive).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var enrolled int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userId, course.ID, false).
		Count(&enrolled)
	if enrolled > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	cart, err := getOrCreateCart(db, userId)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error loading cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add to cart!", nil)
	}

	var existing commerce.CartItem
	err = db.Where("cart_id = ? AND course_id = ?", cart.ID, course.ID).First(&existing).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course is already in your cart!", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Error().Err(err).Msg("cart lookup failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add to cart!", nil)
	}

	item := commerce.CartItem{CartID: cart.ID, CourseID: course.ID, PriceCents: course.PriceCents}
	if err := db.Create(&item).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error adding cart item")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add to cart!", nil)
	}

	cart, err = loadCart(userId)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch cart!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course added to cart!", cartView(cart))
}

func RemoveCartItem(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "course_id")

	db := database.Database.Db
	cart, err := getOrCreateCart(db, userId)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error loading cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update cart!", nil)
	}

	result := db.Unscoped().Where("cart_id = ? AND course_id = ?", cart.ID, courseID).Delete(&commerce.CartItem{})
	if result.Error != nil {
		logger.Log.Error().Err(result.Error).Uint("user_id", userId).Msg("error removing cart item")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update cart!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course is not in your cart!", nil)
	}

	cart, err = loadCart(userId)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch cart!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from cart!", cartView(cart))
}

func ClearCart(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	cart, err := getOrCreateCart(db, userId)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error loading cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clear cart!", nil)
	}

	if err := db.Unscoped().Where("cart_id = ?", cart.ID).Delete(&commerce.CartItem{}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error clearing cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clear cart!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cart cleared!", nil)
}
