package controllers

import (
	"errors"
	"math"
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type reviewView struct {
	ID           uint      `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ratingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func courseRating(db *gorm.DB, courseID uint) (ratingSummary, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := db.Model(&courseModels.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Scan(&row).Error
	if err != nil {
		return ratingSummary{}, err
	}
	return ratingSummary{Average: math.Round(row.Average*100) / 100, Count: row.Count}, nil
}

// ReviewCourse creates or replaces the caller's review of a course they
// are enrolled in.
func ReviewCourse(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedReview").(*courseValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if enrollment, err := requireEnrollment(c, userId, course.ID); enrollment == nil {
		return err
	}

	var review courseModels.Review
	status := fiber.StatusOK
	err := db.Where("user_id = ? AND course_id = ?", userId, course.ID).First(&review).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = courseModels.Review{UserID: userId, CourseID: course.ID, Rating: reqData.Rating, Comment: reqData.Comment}
		err = db.Create(&review).Error
		status = fiber.StatusCreated
	case err == nil:
		review.Rating = reqData.Rating
		review.Comment = reqData.Comment
		review.IsDeleted = false
		err = db.Model(&review).Updates(map[string]interface{}{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"is_deleted": false,
		}).Error
	}
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Uint("course_id", course.ID).Msg("error saving review")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
	}

	return middleware.JsonResponse(c, status, true, "Review saved successfully!", review)
}

func DeleteMyReview(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "id")

	result := database.Database.Db.Model(&courseModels.Review{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userId, courseID, false).
		Update("is_deleted", true)
	if result.Error != nil {
		logger.Log.Error().Err(result.Error).Uint("user_id", userId).Msg("error deleting review")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete review!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Review not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review deleted successfully!", nil)
}

// GetCourseReviews lists reviews of a published course, newest first,
// with the rating summary.
func GetCourseReviews(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")
	q := validators.GetList(c)

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	summary, err := courseRating(db, course.ID)
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error computing rating")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
	}

	var reviews []courseModels.Review
	if err := db.Preload("User").
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("created_at DESC").Offset(q.Offset()).Limit(q.Limit).
		Find(&reviews).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error fetching reviews")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
	}

	rows := make([]reviewView, 0, len(reviews))
	for _, r := range reviews {
		v := reviewView{ID: r.ID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
		if r.User != nil {
			v.ReviewerName = r.User.Name
		}
		rows = append(rows, v)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched successfully!", fiber.Map{
		"reviews":    rows,
		"rating":     summary,
		"pagination": q.Pagination(summary.Count),
	})
}
