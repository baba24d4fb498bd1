package adminRoutes

import (
	adminControllers "lms/controllers/admin"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	"lms/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminUserRoutes registers user management for admins.
func SetupAdminUserRoutes(app *fiber.App) {
	usersGroup := app.Group("/admin/users", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))

	usersGroup.Get("/list", validators.List(), adminControllers.ListUsers)
	usersGroup.Patch("/:id/role", validators.ParamIDs("id"), userValidator.UpdateRole(), adminControllers.UpdateUserRole)
	usersGroup.Delete("/:id", validators.ParamIDs("id"), adminControllers.DeleteUser)
}
