package controllers

import (
	"errors"
	"math"
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EnrollInCourse enrolls the current user in a free published course.
func EnrollInCourse(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "id")

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ? AND status = ?",
		courseID, false, true, courseModels.StatusActive).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if _, err := FindEnrollment(userId, course.ID); err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	if !course.IsFree() {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "This course must be purchased before enrolling!", fiber.Map{
			"price_cents": course.PriceCents,
			"currency":    course.Currency,
		})
	}

	var enrollment *courseModels.Enrollment
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		enrollment, _, err = EnrollUser(tx, userId, course.ID, nil)
		return err
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Uint("course_id", course.ID).Msg("enrollment failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	NotifyEnrollment(userId, course, enrollment)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

// EnrollUser creates the enrollment unless one exists. The bool reports
// whether a new row was created.
func EnrollUser(tx *gorm.DB, userID, courseID uint, orderID *uint) (*courseModels.Enrollment, bool, error) {
	var existing courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var totalLectures int64
	if err := tx.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&totalLectures).Error; err != nil {
		return nil, false, err
	}

	enrollment := courseModels.Enrollment{
		UserID:        userID,
		CourseID:      courseID,
		OrderID:       orderID,
		Status:        courseModels.EnrollmentEnrolled,
		TotalLectures: int(totalLectures),
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		return nil, false, err
	}
	return &enrollment, true, nil
}

// NotifyEnrollment mails the student and emits enrollment.created.
func NotifyEnrollment(userID uint, course courseModels.Course, enrollment *courseModels.Enrollment) {
	var user models.User
	if err := database.Database.Db.Where("id = ?", userID).First(&user).Error; err == nil {
		utils.SendEnrollmentEmail(user.Email, user.Name, course.Title)
	}
	utils.PublishEvent(utils.EventEnrollmentCreated, enrollment.ID, fiber.Map{
		"enrollment_id": enrollment.ID,
		"user_id":       userID,
		"course_id":     course.ID,
		"order_id":      enrollment.OrderID,
	})
}

// RecalculateProgress recomputes an enrollment from the user's completions
// of currently published lectures.
func RecalculateProgress(tx *gorm.DB, enrollment *courseModels.Enrollment) error {
	var total, completed int64
	if err := tx.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", enrollment.CourseID, false, true).
		Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&courseModels.LectureCompletion{}).
		Joins("JOIN lectures ON lectures.id = lecture_completions.lecture_id").
		Where("lecture_completions.user_id = ? AND lecture_completions.course_id = ?", enrollment.UserID, enrollment.CourseID).
		Where("lectures.is_deleted = ? AND lectures.is_published = ? AND lectures.deleted_at IS NULL", false, true).
		Count(&completed).Error; err != nil {
		return err
	}

	enrollment.TotalLectures = int(total)
	enrollment.CompletedLectures = int(completed)
	enrollment.Progress = 0
	if total > 0 {
		enrollment.Progress = math.Round(float64(completed)/float64(total)*10000) / 100
	}

	switch {
	case total > 0 && completed >= total:
		enrollment.Status = courseModels.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			now := time.Now()
			enrollment.CompletedAt = &now
		}
	case completed > 0:
		enrollment.Status = courseModels.EnrollmentInProgress
		enrollment.CompletedAt = nil
	default:
		enrollment.Status = courseModels.EnrollmentEnrolled
		enrollment.CompletedAt = nil
	}

	return tx.Model(enrollment).Updates(map[string]interface{}{
		"total_lectures":     enrollment.TotalLectures,
		"completed_lectures": enrollment.CompletedLectures,
		"progress":           enrollment.Progress,
		"status":             enrollment.Status,
		"completed_at":       enrollment.CompletedAt,
	}).Error
}

// recalculateCourseEnrollments refreshes every enrollment of a course after
// its lecture set changed.
func recalculateCourseEnrollments(courseID uint) {
	db := database.Database.Db
	var enrollments []courseModels.Enrollment
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).Find(&enrollments).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", courseID).Msg("failed to load enrollments for recalculation")
		return
	}
	for i := range enrollments {
		if err := RecalculateProgress(db, &enrollments[i]); err != nil {
			logger.Log.Error().Err(err).Uint("enrollment_id", enrollments[i].ID).Msg("failed to recalculate progress")
		}
	}
}
