package orderController

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lms/config"
	courseController "lms/controllers/course"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const gatewayTimeout = 15 * time.Second

func courseSnapshot(course *courseModels.Course) datatypes.JSON {
	raw, _ := json.Marshal(fiber.Map{
		"id":          course.ID,
		"title":       course.Title,
		"slug":        course.Slug,
		"author":      course.Author,
		"level":       course.Level,
		"price_cents": course.PriceCents,
		"currency":    course.Currency,
	})
	return datatypes.JSON(raw)
}

// Checkout turns the cart into an order priced at the courses' current prices.
func Checkout(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cart, err := loadCart(userId)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error loading cart")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to checkout!", nil)
	}

	now := time.Now()
	order := commerce.Order{
		OrderNumber: utils.NewOrderNumber(now),
		UserID:      userId,
		Status:      commerce.OrderPending,
		Currency:    config.AppConfig.Currency,
	}
	for _, item := range cart.Items {
		course := item.Course
		if course == nil || course.IsDeleted || !course.IsPublished || course.Status != courseModels.StatusActive {
			continue
		}
		if _, err := courseController.FindEnrollment(userId, course.ID); err == nil {
			continue
		}
		order.TotalCents += course.PriceCents
		order.Items = append(order.Items, commerce.OrderItem{
			CourseID:    course.ID,
			CourseTitle: course.Title,
			PriceCents:  course.PriceCents,
			Snapshot:    courseSnapshot(course),
		})
	}
	if len(order.Items) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Your cart is empty!", nil)
	}

	if order.TotalCents == 0 {
		order.Status = commerce.OrderPaid
		order.PaidAt = &now
		var fresh []fulfilled
		err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			var err error
			fresh, err = fulfillOrder(tx, &order)
			return err
		})
		if err != nil {
			logger.Log.Error().Err(err).Uint("user_id", userId).Msg("free order fulfillment failed")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to checkout!", nil)
		}
		notifyOrderPaid(&order, fresh)
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Order completed successfully!", order)
	}

	gateway, err := utils.PaymentGatewayOrErr()
	if err != nil {
		logger.Log.Warn().Err(err).Str("order", order.OrderNumber).Msg("paid checkout refused")
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payments are currently unavailable!", nil)
	}

	db := database.Database.Db
	if err := db.Create(&order).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error creating order")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to checkout!", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayTimeout)
	defer cancel()
	payment, err := gateway.CreatePayment(ctx, utils.PaymentRequest{
		Reference:   order.OrderNumber,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Description: "Order " + order.OrderNumber,
		ReturnURL:   config.AppConfig.AppURL + "/orders/" + order.OrderNumber,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("payment creation failed")
		db.Model(&order).Update("status", commerce.OrderFailed)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Could not start payment!", nil)
	}

	order.PaymentReference = payment.ID
	order.PaymentURL = payment.CheckoutURL
	if err := db.Model(&order).Updates(map[string]interface{}{
		"payment_reference": order.PaymentReference,
		"payment_url":       order.PaymentURL,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("error saving payment reference")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to checkout!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Order created! Complete the payment to get access.", order)
}

type fulfilled struct {
	course     courseModels.Course
	enrollment *courseModels.Enrollment
}

// fulfillOrder enrolls the buyer in every ordered course and clears them
// from the cart. Existing enrollments are kept. It only touches tx, so the
// caller commits the paid status and the enrollments together.
func fulfillOrder(tx *gorm.DB, order *commerce.Order) ([]fulfilled, error) {
	var fresh []fulfilled
	courseIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		enrollment, isNew, err := courseController.EnrollUser(tx, order.UserID, item.CourseID, &order.ID)
		if err != nil {
			return nil, err
		}
		courseIDs = append(courseIDs, item.CourseID)
		if isNew {
			var course courseModels.Course
			if err := tx.Where("id = ?", item.CourseID).First(&course).Error; err != nil {
				return nil, err
			}
			fresh = append(fresh, fulfilled{course: course, enrollment: enrollment})
		}
	}

	var cart commerce.Cart
	if err := tx.Where("user_id = ?", order.UserID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fresh, nil
		}
		return nil, err
	}
	if err := tx.Unscoped().Where("cart_id = ? AND course_id IN ?", cart.ID, courseIDs).Delete(&commerce.CartItem{}).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// notifyOrderPaid sends the enrollment and receipt mails and events once
// the order is committed.
func notifyOrderPaid(order *commerce.Order, fresh []fulfilled) {
	for _, f := range fresh {
		courseController.NotifyEnrollment(order.UserID, f.course, f.enrollment)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ?", order.UserID).First(&user).Error; err == nil {
		utils.SendOrderReceiptEmail(user.Email, user.Name, order.OrderNumber, order.TotalCents, order.Currency)
	}
	utils.PublishEvent(utils.EventOrderPaid, order.ID, fiber.Map{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"total_cents":  order.TotalCents,
		"currency":     order.Currency,
	})
}

// findOwnOrder loads the caller's order with items. On failure it writes
// the response and returns nil.
func findOwnOrder(c *fiber.Ctx, userID uint) (*commerce.Order, error) {
	var order commerce.Order
	err := database.Database.Db.Preload("Items").
		Where("id = ? AND user_id = ?", validators.ID(c, "id"), userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Order not found!", nil)
		}
		logger.Log.Error().Err(err).Uint("user_id", userID).Msg("error loading order")
		return nil, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch order!", nil)
	}
	return &order, nil
}

// ConfirmOrder asks the gateway about the order's payment and fulfills it
// once the payment has succeeded for the full amount.
func ConfirmOrder(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	order, err := findOwnOrder(c, userId)
	if order == nil {
		return err
	}
	if order.Status != commerce.OrderPending {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only pending orders can be confirmed!", nil)
	}
	gateway, err := utils.PaymentGatewayOrErr()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payments are currently unavailable!", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gatewayTimeout)
	defer cancel()
	payment, err := gateway.VerifyPayment(ctx, order.PaymentReference)
	if err != nil {
		logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("payment verification failed")
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Could not verify payment!", nil)
	}

	db := database.Database.Db
	switch {
	case payment.Status == utils.PaymentSucceeded && payment.AmountCents == order.TotalCents:
		now := time.Now()
		var fresh []fulfilled
		processed := false
		err := db.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&commerce.Order{}).
				Where("id = ? AND status = ?", order.ID, commerce.OrderPending).
				Updates(map[string]interface{}{"status": commerce.OrderPaid, "paid_at": now})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				processed = true
				return nil
			}
			var err error
			fresh, err = fulfillOrder(tx, order)
			return err
		})
		if err != nil {
			logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("order fulfillment failed")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to confirm order!", nil)
		}
		if processed {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Order was already processed!", nil)
		}
		order.Status = commerce.OrderPaid
		order.PaidAt = &now

		notifyOrderPaid(order, fresh)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment confirmed! You are now enrolled.", order)

	case payment.Status == utils.PaymentSucceeded, payment.Status == utils.PaymentFailed:
		if payment.Status == utils.PaymentSucceeded {
			logger.Log.Warn().Str("order", order.OrderNumber).Int64("expected", order.TotalCents).Int64("paid", payment.AmountCents).Msg("payment amount mismatch")
		}
		if err := db.Model(order).Update("status", commerce.OrderFailed).Error; err != nil {
			logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("error marking order failed")
		}
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment failed!", order)

	default:
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Payment not completed yet", fiber.Map{
			"status":      payment.Status,
			"payment_url": order.PaymentURL,
		})
	}
}

func CancelOrder(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	order, err := findOwnOrder(c, userId)
	if order == nil {
		return err
	}
	if order.Status != commerce.OrderPending {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only pending orders can be cancelled!", nil)
	}

	if err := database.Database.Db.Model(order).Update("status", commerce.OrderCancelled).Error; err != nil {
		logger.Log.Error().Err(err).Str("order", order.OrderNumber).Msg("error cancelling order")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel order!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order cancelled!", order)
}

func ListOrders(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	q := validators.GetList(c)

	query := database.Database.Db.Model(&commerce.Order{}).Where("user_id = ?", userId)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error counting orders")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	var orders []commerce.Order
	if err := query.Preload("Items").Order("created_at DESC").Offset(q.Offset()).Limit(q.Limit).Find(&orders).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error fetching orders")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", fiber.Map{
		"orders":     orders,
		"pagination": q.Pagination(total),
	})
}

func GetOrder(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	order, err := findOwnOrder(c, userId)
	if order == nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order fetched successfully!", order)
}

// AdminListOrders lists every user's orders, newest first.
func AdminListOrders(c *fiber.Ctx) error {
	q := validators.GetList(c)

	query := database.Database.Db.Model(&commerce.Order{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("order_number LIKE ?", "%"+q.Search+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error counting orders")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	var orders []commerce.Order
	if err := query.Preload("Items").Preload("User").
		Order("created_at DESC").Offset(q.Offset()).Limit(q.Limit).
		Find(&orders).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching orders")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", fiber.Map{
		"orders":     orders,
		"pagination": q.Pagination(total),
	})
}
