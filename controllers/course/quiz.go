package controllers

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionResult is the grading outcome of one question.
type QuestionResult struct {
	QuestionID    uint  `json:"question_id"`
	Selected      []int `json:"selected"`
	Correct       bool  `json:"correct"`
	PointsAwarded int   `json:"points_awarded"`
}

// GradeQuiz scores answers keyed by question id. A question earns its points
// only when the selected option set equals the correct set.
func GradeQuiz(questions []courseModels.Question, answers map[string][]int) (score, maxScore int, results []QuestionResult) {
	results = make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		maxScore += q.Points
		selected := normalizeSelection(answers[strconv.FormatUint(uint64(q.ID), 10)])
		correct := sameSet(selected, q.CorrectOptions)

		r := QuestionResult{QuestionID: q.ID, Selected: selected, Correct: correct}
		if correct {
			r.PointsAwarded = q.Points
			score += q.Points
		}
		results = append(results, r)
	}
	return score, maxScore, results
}

func normalizeSelection(selected []int) []int {
	seen := make(map[int]bool, len(selected))
	out := make([]int, 0, len(selected))
	for _, s := range selected {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

func sameSet(selected []int, correct []int) bool {
	want := normalizeSelection(correct)
	if len(selected) != len(want) || len(want) == 0 {
		return false
	}
	for i := range want {
		if selected[i] != want[i] {
			return false
		}
	}
	return true
}

// publishedQuestionnaire loads a learner-visible questionnaire and checks the
// user's enrollment in its course.
func publishedQuestionnaire(c *fiber.Ctx, userID uint) (*courseModels.Questionnaire, error) {
	id := validators.ID(c, "id")

	var questionnaire courseModels.Questionnaire
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", id, false, true).
		First(&questionnaire).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	enrollment, err := requireEnrollment(c, userID, questionnaire.CourseID)
	if enrollment == nil {
		return nil, err
	}
	return &questionnaire, nil
}

func attemptsUsed(userID, questionnaireID uint) (int64, error) {
	var used int64
	err := database.Database.Db.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND questionnaire_id = ?", userID, questionnaireID).
		Count(&used).Error
	return used, err
}

// GetQuiz returns the questions of a quiz without answers
func GetQuiz(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	questionnaire, err := publishedQuestionnaire(c, userId)
	if questionnaire == nil {
		return err
	}

	questions, err := questionsOf(questionnaire.ID)
	if err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", questionnaire.ID).Msg("error fetching questions")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quiz!", nil)
	}

	used, _ := attemptsUsed(userId, questionnaire.ID)
	var remaining interface{}
	if questionnaire.MaxAttempts > 0 {
		left := int64(questionnaire.MaxAttempts) - used
		if left < 0 {
			left = 0
		}
		remaining = left
	}

	var passed int64
	database.Database.Db.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND questionnaire_id = ? AND passed = ?", userId, questionnaire.ID, true).
		Count(&passed)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", fiber.Map{
		"questionnaire":      questionnaire,
		"questions":          questions,
		"attempts_used":      used,
		"attempts_remaining": remaining,
		"passed":             passed > 0,
	})
}

// SubmitQuiz grades and stores an attempt
func SubmitQuiz(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedSubmission").(*quizValidator.SubmitQuizRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	questionnaire, err := publishedQuestionnaire(c, userId)
	if questionnaire == nil {
		return err
	}

	questions, err := questionsOf(questionnaire.ID)
	if err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", questionnaire.ID).Msg("error fetching questions")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}
	if len(questions) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This quiz has no questions!", nil)
	}

	score, maxScore, results := GradeQuiz(questions, reqData.Answers)
	percent := 0.0
	if maxScore > 0 {
		percent = math.Round(float64(score)/float64(maxScore)*10000) / 100
	}

	answers := make(map[string][]int, len(results))
	for _, r := range results {
		answers[strconv.FormatUint(uint64(r.QuestionID), 10)] = r.Selected
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid answers!", nil)
	}

	var attempt courseModels.QuizAttempt
	limitReached := false
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&courseModels.QuizAttempt{}).
			Where("user_id = ? AND questionnaire_id = ?", userId, questionnaire.ID).
			Count(&used).Error; err != nil {
			return err
		}
		if questionnaire.MaxAttempts > 0 && used >= int64(questionnaire.MaxAttempts) {
			limitReached = true
			return nil
		}

		attempt = courseModels.QuizAttempt{
			UserID:          userId,
			CourseID:        questionnaire.CourseID,
			QuestionnaireID: questionnaire.ID,
			Answers:         datatypes.JSON(answersJSON),
			Score:           score,
			MaxScore:        maxScore,
			Percent:         percent,
			Passed:          percent >= float64(questionnaire.PassPercent),
			AttemptNumber:   int(used) + 1,
		}
		return tx.Create(&attempt).Error
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("questionnaire_id", questionnaire.ID).Msg("error saving attempt")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}
	if limitReached {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Maximum number of attempts reached!", nil)
	}

	utils.PublishEvent(utils.EventQuizSubmitted, attempt.ID, fiber.Map{
		"attempt_id":       attempt.ID,
		"user_id":          userId,
		"questionnaire_id": questionnaire.ID,
		"percent":          attempt.Percent,
		"passed":           attempt.Passed,
	})

	message := "Quiz submitted. You did not reach the pass mark."
	if attempt.Passed {
		message = "Quiz submitted. You passed!"
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, message, fiber.Map{
		"attempt": attempt,
		"results": results,
	})
}

// GetQuizAttempts lists the user's attempts at a quiz, newest first
func GetQuizAttempts(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	questionnaire, err := publishedQuestionnaire(c, userId)
	if questionnaire == nil {
		return err
	}

	var attempts []courseModels.QuizAttempt
	if err := database.Database.Db.Where("user_id = ? AND questionnaire_id = ?", userId, questionnaire.ID).
		Order("attempt_number DESC").Find(&attempts).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching attempts")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", fiber.Map{
		"questionnaire": questionnaire,
		"attempts":      attempts,
	})
}
