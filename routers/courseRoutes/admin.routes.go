package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all admin course management routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, adminOnly)

	// Course CRUD
	adminGroup.Post("/create", courseValidator.CreateCourseAdmin(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", validators.List(), controllers.AdminGetAllCourses)
	adminGroup.Put("/:id", validators.ParamIDs("id"), courseValidator.UpdateCourseAdmin(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", validators.ParamIDs("id"), controllers.AdminDeleteCourse)
	adminGroup.Get("/:id", validators.ParamIDs("id"), controllers.AdminGetCourseDetails)
	adminGroup.Post("/:id/publish", validators.ParamIDs("id"), courseValidator.Publish(), controllers.AdminPublishCourse)

	// Chapters
	adminGroup.Post("/:id/chapter", validators.ParamIDs("id"), courseValidator.CreateChapter(), controllers.AdminCreateChapter)
	adminGroup.Put("/:course_id/chapter/:chapter_id", validators.ParamIDs("course_id", "chapter_id"), courseValidator.UpdateChapter(), controllers.AdminUpdateChapter)
	adminGroup.Delete("/:course_id/chapter/:chapter_id", validators.ParamIDs("course_id", "chapter_id"), controllers.AdminDeleteChapter)
	adminGroup.Get("/:id/chapters", validators.ParamIDs("id"), controllers.AdminListChapters)

	// Lectures
	adminGroup.Post("/:course_id/chapter/:chapter_id/lecture", validators.ParamIDs("course_id", "chapter_id"), courseValidator.CreateLecture(), controllers.AdminCreateLecture)

	lectureGroup := app.Group("/admin/lecture", middleware.JWTMiddleware, adminOnly)
	lectureGroup.Put("/:lecture_id", validators.ParamIDs("lecture_id"), courseValidator.UpdateLecture(), controllers.AdminUpdateLecture)
	lectureGroup.Delete("/:lecture_id", validators.ParamIDs("lecture_id"), controllers.AdminDeleteLecture)
	lectureGroup.Post("/:lecture_id/publish", validators.ParamIDs("lecture_id"), courseValidator.Publish(), controllers.AdminPublishLecture)

	// Enrollment & progress tracking
	adminGroup.Get("/:id/enrollments", validators.ParamIDs("id"), validators.List(), controllers.AdminGetCourseEnrollments)

	studentGroup := app.Group("/admin/student", middleware.JWTMiddleware, adminOnly)
	studentGroup.Get("/:user_id/progress", validators.ParamIDs("user_id"), controllers.AdminGetStudentProgress)

	// Dashboard
	dashGroup := app.Group("/admin/dashboard", middleware.JWTMiddleware, adminOnly)
	dashGroup.Get("/stats", controllers.AdminDashboardStats)
}
