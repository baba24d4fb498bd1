package quizValidator

import (
	"fmt"

	"lms/middleware"
	courseModels "lms/models/course"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateQuestionnaireRequest struct {
	Title            string `json:"title" validate:"required,min=2,max=200"`
	Description      string `json:"description" validate:"max=2000"`
	ChapterID        *uint  `json:"chapter_id"`
	PassPercent      int    `json:"pass_percent" validate:"required,gte=1,lte=100"`
	MaxAttempts      int    `json:"max_attempts" validate:"gte=0"`
	TimeLimitMinutes int    `json:"time_limit_minutes" validate:"gte=0"`
	IsPublished      bool   `json:"is_published"`
}

type UpdateQuestionnaireRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description      *string `json:"description" validate:"omitempty,max=2000"`
	ChapterID        *uint   `json:"chapter_id"`
	PassPercent      *int    `json:"pass_percent" validate:"omitempty,gte=1,lte=100"`
	MaxAttempts      *int    `json:"max_attempts" validate:"omitempty,gte=0"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" validate:"omitempty,gte=0"`
	IsPublished      *bool   `json:"is_published"`
}

type QuestionRequest struct {
	Text           string   `json:"text" validate:"required,max=2000"`
	QuestionType   string   `json:"question_type" validate:"required,oneof=SINGLE MULTIPLE"`
	Options        []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectOptions []int    `json:"correct_options" validate:"required,min=1"`
	Points         int      `json:"points" validate:"gte=0,lte=100"`
	OrderIndex     int      `json:"order_index" validate:"gte=0"`
}

type UpdateQuestionRequest struct {
	Text           *string  `json:"text" validate:"omitempty,max=2000"`
	QuestionType   *string  `json:"question_type" validate:"omitempty,oneof=SINGLE MULTIPLE"`
	Options        []string `json:"options" validate:"omitempty,min=2,max=10,dive,required,max=500"`
	CorrectOptions []int    `json:"correct_options" validate:"omitempty,min=1"`
	Points         *int     `json:"points" validate:"omitempty,gte=1,lte=100"`
	OrderIndex     *int     `json:"order_index" validate:"omitempty,gte=0"`
}

type SubmitQuizRequest struct {
	Answers map[string][]int `json:"answers" validate:"required"`
}

// CheckAnswerKey validates correct option indexes against the options and
// question type.
func CheckAnswerKey(questionType string, options []string, correct []int) map[string]string {
	errors := make(map[string]string)
	seen := make(map[int]bool, len(correct))
	for _, idx := range correct {
		if idx < 0 || idx >= len(options) {
			errors["correct_options"] = fmt.Sprintf("Option index %d is out of range!", idx)
			break
		}
		if seen[idx] {
			errors["correct_options"] = fmt.Sprintf("Option index %d is repeated!", idx)
			break
		}
		seen[idx] = true
	}
	if _, bad := errors["correct_options"]; !bad {
		if questionType == courseModels.QuestionSingle && len(correct) != 1 {
			errors["correct_options"] = "SINGLE questions need exactly one correct option!"
		}
		if len(correct) == 0 {
			errors["correct_options"] = "At least one correct option is required!"
		}
	}
	if len(errors) == 0 {
		return nil
	}
	return errors
}

func CreateQuestionnaire() fiber.Handler {
	return validators.Body[CreateQuestionnaireRequest]("validatedQuestionnaire")
}

func UpdateQuestionnaire() fiber.Handler {
	return validators.Body[UpdateQuestionnaireRequest]("validatedQuestionnaireUpdate")
}

func CreateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuestionRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}

		if errors := CheckAnswerKey(reqData.QuestionType, reqData.Options, reqData.CorrectOptions); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		if reqData.Points == 0 {
			reqData.Points = 1
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

func UpdateQuestion() fiber.Handler {
	return validators.Body[UpdateQuestionRequest]("validatedQuestionUpdate")
}

func SubmitQuiz() fiber.Handler {
	return validators.Body[SubmitQuizRequest]("validatedSubmission")
}
