package orderRoutes

import (
	orderController "lms/controllers/order"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	orderValidator "lms/validators/order"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(app *fiber.App) {
	cartGroup := app.Group("/cart", middleware.JWTMiddleware)
	cartGroup.Get("/", orderController.GetCart)
	cartGroup.Post("/items", orderValidator.AddCartItem(), orderController.AddCartItem)
	cartGroup.Delete("/items/:course_id", validators.ParamIDs("course_id"), orderController.RemoveCartItem)
	cartGroup.Delete("/", orderController.ClearCart)

	orderGroup := app.Group("/order", middleware.JWTMiddleware)
	orderGroup.Post("/checkout", orderController.Checkout)
	orderGroup.Get("/list", validators.List(), orderController.ListOrders)
	orderGroup.Get("/:id", validators.ParamIDs("id"), orderController.GetOrder)
	orderGroup.Post("/:id/confirm", validators.ParamIDs("id"), orderController.ConfirmOrder)
	orderGroup.Post("/:id/cancel", validators.ParamIDs("id"), orderController.CancelOrder)

	app.Get("/admin/orders", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin), validators.List(), orderController.AdminListOrders)
}
