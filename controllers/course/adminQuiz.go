package controllers

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/validators"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// questionWithAnswers exposes the answer key for admins.
type questionWithAnswers struct {
	courseModels.Question
	CorrectOptions []int `json:"correct_options"`
}

func withAnswers(questions []courseModels.Question) []questionWithAnswers {
	out := make([]questionWithAnswers, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionWithAnswers{Question: q, CorrectOptions: []int(q.CorrectOptions)})
	}
	return out
}

func findQuestionnaire(id uint) (*courseModels.Questionnaire, error) {
	var questionnaire courseModels.Questionnaire
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", id, false).First(&questionnaire).Error; err != nil {
		return nil, err
	}
	return &questionnaire, nil
}

func questionsOf(questionnaireID uint) ([]courseModels.Question, error) {
	var questions []courseModels.Question
	err := database.Database.Db.
		Where("questionnaire_id = ? AND is_deleted = ?", questionnaireID, false).
		Order("order_index ASC, id ASC").Find(&questions).Error
	return questions, err
}

// AdminCreateQuestionnaire attaches a questionnaire to a course
func AdminCreateQuestionnaire(c *fiber.Ctx) error {
	courseID := validators.ID(c, "course_id")

	reqData, ok := c.Locals("validatedQuestionnaire").(*quizValidator.CreateQuestionnaireRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if reqData.ChapterID != nil {
		if _, err := findChapter(course.ID, *reqData.ChapterID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
		}
	}

	questionnaire := courseModels.Questionnaire{
		CourseID:         course.ID,
		ChapterID:        reqData.ChapterID,
		Title:            reqData.Title,
		Description:      reqData.Description,
		PassPercent:      reqData.PassPercent,
		MaxAttempts:      reqData.MaxAttempts,
		TimeLimitMinutes: reqData.TimeLimitMinutes,
		IsPublished:      reqData.IsPublished,
	}
	if err := db.Create(&questionnaire).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error creating questionnaire")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create questionnaire!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Questionnaire created successfully!", questionnaire)
}

// AdminUpdateQuestionnaire updates the provided questionnaire fields
func AdminUpdateQuestionnaire(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedQuestionnaireUpdate").(*quizValidator.UpdateQuestionnaireRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	questionnaire, err := findQuestionnaire(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Questionnaire not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.ChapterID != nil {
		if _, err := findChapter(questionnaire.CourseID, *reqData.ChapterID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
		}
		updates["chapter_id"] = *reqData.ChapterID
	}
	if reqData.PassPercent != nil {
		updates["pass_percent"] = *reqData.PassPercent
	}
	if reqData.MaxAttempts != nil {
		updates["max_attempts"] = *reqData.MaxAttempts
	}
	if reqData.TimeLimitMinutes != nil {
		updates["time_limit_minutes"] = *reqData.TimeLimitMinutes
	}
	if reqData.IsPublished != nil {
		updates["is_published"] = *reqData.IsPublished
	}

	db := database.Database.Db
	if len(updates) > 0 {
		if err := db.Model(questionnaire).Updates(updates).Error; err != nil {
			logger.Log.Error().Err(err).Uint("questionnaire_id", id).Msg("error updating questionnaire")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update questionnaire!", nil)
		}
	}
	db.First(questionnaire, questionnaire.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questionnaire updated successfully!", questionnaire)
}

// AdminDeleteQuestionnaire soft deletes a questionnaire and its questions
func AdminDeleteQuestionnaire(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	questionnaire, err := findQuestionnaire(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Questionnaire not found!", nil)
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&courseModels.Question{}).
			Where("questionnaire_id = ?", questionnaire.ID).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(questionnaire).Updates(map[string]interface{}{"is_deleted": true, "is_published": false}).Error
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", id).Msg("error deleting questionnaire")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete questionnaire!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questionnaire deleted successfully!", nil)
}

// AdminGetQuestionnaire returns a questionnaire with questions and answers
func AdminGetQuestionnaire(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	questionnaire, err := findQuestionnaire(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Questionnaire not found!", nil)
	}

	questions, err := questionsOf(questionnaire.ID)
	if err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", id).Msg("error fetching questions")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
	}

	var attempts int64
	database.Database.Db.Model(&courseModels.QuizAttempt{}).Where("questionnaire_id = ?", questionnaire.ID).Count(&attempts)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questionnaire fetched successfully!", fiber.Map{
		"questionnaire": questionnaire,
		"questions":     withAnswers(questions),
		"attempt_count": attempts,
	})
}

// AdminCreateQuestion adds a question to a questionnaire
func AdminCreateQuestion(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedQuestion").(*quizValidator.QuestionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	questionnaire, err := findQuestionnaire(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Questionnaire not found!", nil)
	}

	question := courseModels.Question{
		QuestionnaireID: questionnaire.ID,
		Text:            reqData.Text,
		QuestionType:    reqData.QuestionType,
		Options:         datatypes.JSONSlice[string](reqData.Options),
		CorrectOptions:  datatypes.JSONSlice[int](reqData.CorrectOptions),
		Points:          reqData.Points,
		OrderIndex:      reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&question).Error; err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", id).Msg("error creating question")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully!", questionWithAnswers{
		Question:       question,
		CorrectOptions: reqData.CorrectOptions,
	})
}

func findQuestion(id uint) (*courseModels.Question, error) {
	var question courseModels.Question
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", id, false).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// AdminUpdateQuestion updates a question; the merged answer key is
// validated against the merged options.
func AdminUpdateQuestion(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedQuestionUpdate").(*quizValidator.UpdateQuestionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	question, err := findQuestion(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	if reqData.Text != nil {
		question.Text = *reqData.Text
	}
	if reqData.QuestionType != nil {
		question.QuestionType = *reqData.QuestionType
	}
	if reqData.Options != nil {
		question.Options = datatypes.JSONSlice[string](reqData.Options)
	}
	if reqData.CorrectOptions != nil {
		question.CorrectOptions = datatypes.JSONSlice[int](reqData.CorrectOptions)
	}
	if reqData.Points != nil {
		question.Points = *reqData.Points
	}
	if reqData.OrderIndex != nil {
		question.OrderIndex = *reqData.OrderIndex
	}

	if errors := quizValidator.CheckAnswerKey(question.QuestionType, question.Options, question.CorrectOptions); errors != nil {
		return middleware.ValidationErrorResponse(c, errors)
	}

	if err := database.Database.Db.Save(question).Error; err != nil {
		logger.Log.Error().Err(err).Uint("question_id", id).Msg("error updating question")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question updated successfully!", questionWithAnswers{
		Question:       *question,
		CorrectOptions: []int(question.CorrectOptions),
	})
}

// AdminDeleteQuestion soft deletes a question
func AdminDeleteQuestion(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	question, err := findQuestion(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	if err := database.Database.Db.Model(question).Update("is_deleted", true).Error; err != nil {
		logger.Log.Error().Err(err).Uint("question_id", id).Msg("error deleting question")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question deleted successfully!", nil)
}
