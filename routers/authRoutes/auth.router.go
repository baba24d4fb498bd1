package authRoutes

import (
	authControllers "lms/controllers/auth"
	"lms/middleware"
	authValidators "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth", middleware.AuthRateLimiter())

	authGroup.Post("/register", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Post("/logout", middleware.JWTMiddleware, authControllers.Logout)
	authGroup.Post("/password/forgot", authValidators.ForgotPassword(), authControllers.ForgotPassword)
	authGroup.Post("/password/reset", authValidators.ResetPassword(), authControllers.ResetPassword)
	authGroup.Post("/password/change", middleware.JWTMiddleware, authValidators.ChangePassword(), authControllers.ChangePassword)
}
