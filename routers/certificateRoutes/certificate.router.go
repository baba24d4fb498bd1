package certificateRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	certificateValidator "lms/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	certGroup := app.Group("/certificate")

	// Public verification
	certGroup.Get("/verify/:token", controllers.VerifyCertificate)
	certGroup.Get("/number/:number", controllers.VerifyCertificateNumber)

	certGroup.Post("/claim/:course_id", middleware.JWTMiddleware, validators.ParamIDs("course_id"), controllers.ClaimCertificate)
	certGroup.Get("/:id", middleware.JWTMiddleware, validators.ParamIDs("id"), controllers.GetCertificate)
}

func SetupAdminCertificateRoutes(app *fiber.App) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	app.Post("/admin/course/:course_id/certification", middleware.JWTMiddleware, adminOnly,
		validators.ParamIDs("course_id"), certificateValidator.CreateCertification(), controllers.AdminCreateCertification)

	certificationGroup := app.Group("/admin/certification", middleware.JWTMiddleware, adminOnly)
	certificationGroup.Put("/:id", validators.ParamIDs("id"), certificateValidator.UpdateCertification(), controllers.AdminUpdateCertification)
	certificationGroup.Get("/:id", validators.ParamIDs("id"), controllers.AdminGetCertification)
	certificationGroup.Post("/:id/placeholder", validators.ParamIDs("id"), certificateValidator.CreatePlaceholder(), controllers.AdminCreatePlaceholder)

	app.Delete("/admin/placeholder/:id", middleware.JWTMiddleware, adminOnly, validators.ParamIDs("id"), controllers.AdminDeletePlaceholder)

	listGroup := app.Group("/admin/certificates", middleware.JWTMiddleware, adminOnly)
	listGroup.Get("/pending", validators.List(), controllers.AdminGetPendingCertificates)
	listGroup.Get("/issued", validators.List(), controllers.AdminGetIssuedCertificates)

	requestGroup := app.Group("/admin/certificate", middleware.JWTMiddleware, adminOnly)
	requestGroup.Post("/issuance/:id/revoke", validators.ParamIDs("id"), certificateValidator.Reason(), controllers.AdminRevokeCertificate)
	requestGroup.Post("/:request_id/approve", validators.ParamIDs("request_id"), controllers.AdminApproveCertificate)
	requestGroup.Post("/:request_id/reject", validators.ParamIDs("request_id"), certificateValidator.Reason(), controllers.AdminRejectCertificate)
}
