package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Catalog (public)
	userGroup.Get("/list", validators.List(), controllers.GetAllCourses)
	userGroup.Get("/:id/reviews", validators.ParamIDs("id"), validators.List(), controllers.GetCourseReviews)
	userGroup.Get("/:id", middleware.OptionalJWT, validators.ParamIDs("id"), controllers.GetCourseDetails)

	// Enrollment & learning
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.ParamIDs("id"), controllers.EnrollInCourse)
	userGroup.Get("/:id/content", middleware.JWTMiddleware, validators.ParamIDs("id"), controllers.GetCourseContent)
	userGroup.Post("/:course_id/lecture/:lecture_id/complete", middleware.JWTMiddleware, validators.ParamIDs("course_id", "lecture_id"), controllers.MarkLectureComplete)
	userGroup.Post("/:id/review", middleware.JWTMiddleware, validators.ParamIDs("id"), courseValidator.Review(), controllers.ReviewCourse)
	userGroup.Delete("/:id/review", middleware.JWTMiddleware, validators.ParamIDs("id"), controllers.DeleteMyReview)
	userGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.ParamIDs("course_id"), controllers.GetCourseProgress)
}
