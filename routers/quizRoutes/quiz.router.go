package quizRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

func SetupQuizRoutes(app *fiber.App) {
	quizGroup := app.Group("/quiz", middleware.JWTMiddleware)
	quizGroup.Get("/:id", validators.ParamIDs("id"), controllers.GetQuiz)
	quizGroup.Post("/:id/submit", validators.ParamIDs("id"), quizValidator.SubmitQuiz(), controllers.SubmitQuiz)
	quizGroup.Get("/:id/attempts", validators.ParamIDs("id"), controllers.GetQuizAttempts)
}

func SetupAdminQuizRoutes(app *fiber.App) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	app.Post("/admin/course/:course_id/questionnaire", middleware.JWTMiddleware, adminOnly,
		validators.ParamIDs("course_id"), quizValidator.CreateQuestionnaire(), controllers.AdminCreateQuestionnaire)

	questionnaireGroup := app.Group("/admin/questionnaire", middleware.JWTMiddleware, adminOnly)
	questionnaireGroup.Get("/:id", validators.ParamIDs("id"), controllers.AdminGetQuestionnaire)
	questionnaireGroup.Put("/:id", validators.ParamIDs("id"), quizValidator.UpdateQuestionnaire(), controllers.AdminUpdateQuestionnaire)
	questionnaireGroup.Delete("/:id", validators.ParamIDs("id"), controllers.AdminDeleteQuestionnaire)
	questionnaireGroup.Post("/:id/question", validators.ParamIDs("id"), quizValidator.CreateQuestion(), controllers.AdminCreateQuestion)

	questionGroup := app.Group("/admin/question", middleware.JWTMiddleware, adminOnly)
	questionGroup.Put("/:id", validators.ParamIDs("id"), quizValidator.UpdateQuestion(), controllers.AdminUpdateQuestion)
	questionGroup.Delete("/:id", validators.ParamIDs("id"), controllers.AdminDeleteQuestion)
}
