package adminController

import (
	"strings"
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	userValidator "lms/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ListUsers(c *fiber.Ctx) error {
	q := validators.GetList(c)

	db := database.Database.Db
	base := db.Model(&models.User{}).Where("is_deleted = ?", false)
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if q.Role != "" {
		base = base.Where("role = ?", q.Role)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	base.Count(&total)

	var users []models.User
	if err := base.Order("created_at DESC, id DESC").Offset(q.Offset()).Limit(q.Limit).Find(&users).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching users")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User list.", fiber.Map{
		"users":      users,
		"pagination": q.Pagination(total),
	})
}

func UpdateUserRole(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	targetID := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedRole").(*userValidator.UpdateRoleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if targetID == adminID && reqData.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot change your own role!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if err := db.Model(&user).Update("role", reqData.Role).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", targetID).Msg("error updating role")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update role!", nil)
	}

	logger.Log.Info().Uint("admin_id", adminID).Uint("user_id", targetID).Str("role", reqData.Role).Msg("role changed")
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully.", user)
}

func DeleteUser(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	targetID := validators.ID(c, "id")

	if targetID == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot delete your own account!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Session{}).
			Where("user_id = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", time.Now()).Error
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", targetID).Msg("error deleting user")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User deleted successfully.", nil)
}
