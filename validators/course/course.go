package courseValidator

import (
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// ============ Course Validators ============

type CreateCourseRequest struct {
	Title         string `json:"title" validate:"required,min=3,max=200"`
	Description   string `json:"description" validate:"required,min=5"`
	Author        string `json:"author" validate:"required,min=2,max=100,excludesall=<>{}"`
	Category      string `json:"category" validate:"max=100"`
	Level         string `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	PriceCents    int64  `json:"price_cents" validate:"gte=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	DurationHours int64  `json:"duration_hours" validate:"gte=0"`
	ThumbnailURL  string `json:"thumbnail_url" validate:"omitempty,url"`
}

type UpdateCourseRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description   *string `json:"description" validate:"omitempty,min=5"`
	Author        *string `json:"author" validate:"omitempty,min=2,max=100,excludesall=<>{}"`
	Category      *string `json:"category" validate:"omitempty,max=100"`
	Level         *string `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	PriceCents    *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Currency      *string `json:"currency" validate:"omitempty,len=3"`
	DurationHours *int64  `json:"duration_hours" validate:"omitempty,gte=0"`
	ThumbnailURL  *string `json:"thumbnail_url" validate:"omitempty,url"`
	Status        *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
}

type PublishRequest struct {
	IsPublished *bool `json:"is_published" validate:"required"`
}

// CreateCourseAdmin validates admin course creation request
func CreateCourseAdmin() fiber.Handler {
	return validators.Body[CreateCourseRequest]("validatedCourse")
}

// UpdateCourseAdmin validates admin course update request
func UpdateCourseAdmin() fiber.Handler {
	return validators.Body[UpdateCourseRequest]("validatedCourseUpdate")
}

// Publish validates a publish/unpublish toggle for courses and lectures
func Publish() fiber.Handler {
	return validators.Body[PublishRequest]("validatedPublish")
}

// ============ Chapter Validators ============

type CreateChapterRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

type UpdateChapterRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,gte=0"`
}

func CreateChapter() fiber.Handler {
	return validators.Body[CreateChapterRequest]("validatedChapter")
}

func UpdateChapter() fiber.Handler {
	return validators.Body[UpdateChapterRequest]("validatedChapterUpdate")
}

// ============ Lecture Validators ============

type CreateLectureRequest struct {
	Title           string `json:"title" validate:"required,min=2,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	ContentType     string `json:"content_type" validate:"required,oneof=TEXT VIDEO FILE"`
	TextContent     string `json:"text_content"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	FileURL         string `json:"file_url" validate:"omitempty,url"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
	IsPreview       bool   `json:"is_preview"`
}

type UpdateLectureRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	ContentType     *string `json:"content_type" validate:"omitempty,oneof=TEXT VIDEO FILE"`
	TextContent     *string `json:"text_content"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url"`
	FileURL         *string `json:"file_url" validate:"omitempty,url"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=0"`
	OrderIndex      *int    `json:"order_index" validate:"omitempty,gte=0"`
	IsPreview       *bool   `json:"is_preview"`
}

// CheckLectureContent reports the missing body field for the content type.
func CheckLectureContent(contentType, text, videoURL, fileURL string) map[string]string {
	errors := make(map[string]string)
	switch contentType {
	case courseModels.ContentText:
		if text == "" {
			errors["text_content"] = "text_content is required for TEXT lectures!"
		}
	case courseModels.ContentVideo:
		if videoURL == "" {
			errors["video_url"] = "video_url is required for VIDEO lectures!"
		}
	case courseModels.ContentFile:
		if fileURL == "" {
			errors["file_url"] = "file_url is required for FILE lectures!"
		}
	}
	if len(errors) == 0 {
		return nil
	}
	return errors
}

func CreateLecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateLectureRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}

		if errors := CheckLectureContent(reqData.ContentType, reqData.TextContent, reqData.VideoURL, reqData.FileURL); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLecture", reqData)
		return c.Next()
	}
}

func UpdateLecture() fiber.Handler {
	return validators.Body[UpdateLectureRequest]("validatedLectureUpdate")
}

// ============ Review Validators ============

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func Review() fiber.Handler {
	return validators.Body[ReviewRequest]("validatedReview")
}
