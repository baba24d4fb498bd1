package userController

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/validators"
	userValidator "lms/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GetProfile(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User profile.", user)
}

func UpdateProfile(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Bio != nil {
		updates["bio"] = *reqData.Bio
	}
	if reqData.AvatarURL != nil {
		updates["avatar_url"] = *reqData.AvatarURL
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error updating profile")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}
	db.First(&user, user.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully.", user)
}

func LoginHistoryList(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	q := validators.GetList(c)

	db := database.Database.Db
	var history []models.LoginHistory
	var total int64

	base := db.Model(&models.LoginHistory{}).Where("user_id = ? AND is_deleted = ?", userId, false).Session(&gorm.Session{})
	if err := base.Count(&total).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error counting login history")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}
	if err := base.Order("timestamp DESC, id DESC").Offset(q.Offset()).Limit(q.Limit).Find(&history).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching login history")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", fiber.Map{
		"loginHistory": history,
		"pagination":   q.Pagination(total),
	})
}

func MyEnrollments(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	q := validators.GetList(c)

	db := database.Database.Db
	var enrollments []courseModels.Enrollment
	var total int64

	base := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND is_deleted = ?", userId, false)
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	base = base.Session(&gorm.Session{})
	base.Count(&total)

	if err := base.Preload("Course").Order("updated_at DESC").
		Offset(q.Offset()).Limit(q.Limit).Find(&enrollments).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching enrollments")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", fiber.Map{
		"enrollments": enrollments,
		"pagination":  q.Pagination(total),
	})
}

func MyCertificates(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	var certificates []courseModels.CertificateIssuance
	if err := db.Preload("Course").Where("user_id = ?", userId).
		Order("issued_at DESC").Find(&certificates).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching certificates")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	var pending int64
	db.Model(&courseModels.CertificateRequest{}).
		Where("user_id = ? AND status = ? AND is_deleted = ?", userId, courseModels.RequestPending, false).
		Count(&pending)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully.", fiber.Map{
		"certificates":     certificates,
		"pending_requests": pending,
	})
}

func Dashboard(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	enrollments := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND is_deleted = ?", userId, false)

	var enrolled, inProgress, completed, certificates, attempts, passed int64
	enrollments.Session(&gorm.Session{}).Count(&enrolled)
	enrollments.Session(&gorm.Session{}).Where("status = ?", courseModels.EnrollmentInProgress).Count(&inProgress)
	enrollments.Session(&gorm.Session{}).Where("status = ?", courseModels.EnrollmentCompleted).Count(&completed)
	db.Model(&courseModels.CertificateIssuance{}).
		Where("user_id = ? AND status = ?", userId, courseModels.IssuanceActive).Count(&certificates)
	db.Model(&courseModels.QuizAttempt{}).Where("user_id = ?", userId).Count(&attempts)
	db.Model(&courseModels.QuizAttempt{}).Where("user_id = ? AND passed = ?", userId, true).
		Distinct("questionnaire_id").Count(&passed)

	var recent []courseModels.Enrollment
	enrollments.Session(&gorm.Session{}).Preload("Course").
		Where("status = ?", courseModels.EnrollmentInProgress).
		Order("updated_at DESC").Limit(5).Find(&recent)

	var latestAttempts []courseModels.QuizAttempt
	db.Where("user_id = ?", userId).Order("created_at DESC, id DESC").Limit(5).Find(&latestAttempts)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully.", fiber.Map{
		"stats": fiber.Map{
			"enrolled_courses":    enrolled,
			"in_progress_courses": inProgress,
			"completed_courses":   completed,
			"certificates":        certificates,
			"quiz_attempts":       attempts,
			"passed_quizzes":      passed,
		},
		"recent_courses":       recent,
		"recent_quiz_attempts": latestAttempts,
	})
}
