package userRoutes

import (
	userControllers "lms/controllers/userControllers"
	"lms/middleware"
	"lms/validators"
	"lms/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user", middleware.JWTMiddleware)

	userGroup.Get("/profile", userControllers.GetProfile)
	userGroup.Patch("/profile", userValidator.UpdateProfile(), userControllers.UpdateProfile)
	userGroup.Get("/login-history", validators.List(), userControllers.LoginHistoryList)
	userGroup.Get("/enrollments", validators.List(), userControllers.MyEnrollments)
	userGroup.Get("/certificates", userControllers.MyCertificates)
	userGroup.Get("/dashboard", userControllers.Dashboard)
}
