package controllers

import (
	"errors"
	"fmt"
	"time"

	"lms/config"
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

const certificateDateLayout = "2006-01-02"

// ReservedPlaceholders are filled from the issuance itself and cannot be
// overridden by custom placeholders.
var ReservedPlaceholders = map[string]bool{
	"student_name":       true,
	"course_title":       true,
	"certificate_number": true,
	"issued_date":        true,
	"expiry_date":        true,
}

var errCertificateNumberExhausted = errors.New("could not allocate a unique certificate number")

// RenderCertificate fills the certification template for one issuance.
func RenderCertificate(cert courseModels.Certification, placeholders []courseModels.Placeholder,
	student models.User, course courseModels.Course, number string, issuedAt time.Time, expiresAt *time.Time) string {

	values := make(map[string]string, len(placeholders)+len(ReservedPlaceholders))
	for _, p := range placeholders {
		values[p.Key] = p.Value
	}
	values["student_name"] = student.Name
	values["course_title"] = course.Title
	values["certificate_number"] = number
	values["issued_date"] = issuedAt.Format(certificateDateLayout)
	values["expiry_date"] = "Never"
	if expiresAt != nil {
		values["expiry_date"] = expiresAt.Format(certificateDateLayout)
	}
	return utils.RenderTemplate(cert.BodyTemplate, values)
}

// issueCertificate creates an ACTIVE issuance inside tx and returns it with
// the raw verification token. Only the token's hash is stored.
func issueCertificate(tx *gorm.DB, student models.User, course courseModels.Course, cert courseModels.Certification) (*courseModels.CertificateIssuance, string, error) {
	var placeholders []courseModels.Placeholder
	if err := tx.Where("certification_id = ?", cert.ID).Find(&placeholders).Error; err != nil {
		return nil, "", err
	}

	issuedAt := time.Now()
	var expiresAt *time.Time
	if cert.ValidityDays > 0 {
		t := issuedAt.AddDate(0, 0, cert.ValidityDays)
		expiresAt = &t
	}

	number := ""
	for i := 0; i < 10; i++ {
		candidate := utils.NewCertificateNumber(issuedAt)
		var taken int64
		if err := tx.Unscoped().Model(&courseModels.CertificateIssuance{}).
			Where("certificate_number = ?", candidate).Count(&taken).Error; err != nil {
			return nil, "", err
		}
		if taken == 0 {
			number = candidate
			break
		}
	}
	if number == "" {
		return nil, "", errCertificateNumberExhausted
	}

	rawToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, "", err
	}

	issuance := courseModels.CertificateIssuance{
		UserID:            student.ID,
		CourseID:          course.ID,
		CertificationID:   cert.ID,
		CertificateNumber: number,
		TokenHash:         utils.HashToken(rawToken),
		RenderedBody:      RenderCertificate(cert, placeholders, student, course, number, issuedAt, expiresAt),
		Status:            courseModels.IssuanceActive,
		IssuedAt:          issuedAt,
		ExpiresAt:         expiresAt,
	}
	if err := tx.Create(&issuance).Error; err != nil {
		return nil, "", err
	}
	return &issuance, rawToken, nil
}

// ensureNoActiveIssuance returns errAlreadyIssued when the user already holds
// an ACTIVE certificate for the course. It runs in the issuing transaction.
func ensureNoActiveIssuance(tx *gorm.DB, userID, courseID uint) error {
	var active int64
	if err := tx.Model(&courseModels.CertificateIssuance{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, courseModels.IssuanceActive).
		Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return errAlreadyIssued
	}
	return nil
}

// notifyIssued mails the student and emits certificate.issued.
func notifyIssued(student models.User, course courseModels.Course, issuance *courseModels.CertificateIssuance, rawToken string) {
	link := fmt.Sprintf("%s/certificate/verify/%s", config.AppConfig.AppURL, rawToken)
	utils.SendCertificateEmail(student.Email, student.Name, course.Title, issuance.CertificateNumber, link)
	utils.PublishEvent(utils.EventCertificateIssued, issuance.ID, fiber.Map{
		"issuance_id":        issuance.ID,
		"user_id":            student.ID,
		"course_id":          course.ID,
		"certificate_number": issuance.CertificateNumber,
	})
}

// checkEligibility returns a human readable reason when the user cannot
// receive the certificate yet.
func checkEligibility(db *gorm.DB, enrollment *courseModels.Enrollment, cert courseModels.Certification) (string, error) {
	if enrollment.Status != courseModels.EnrollmentCompleted {
		return "Complete all lectures of the course to claim the certificate!", nil
	}
	if !cert.RequireAllQuizzes {
		return "", nil
	}

	var questionnaireIDs []uint
	if err := db.Model(&courseModels.Questionnaire{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", enrollment.CourseID, false, true).
		Pluck("id", &questionnaireIDs).Error; err != nil {
		return "", err
	}
	if len(questionnaireIDs) == 0 {
		return "", nil
	}

	var passed int64
	if err := db.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND passed = ? AND questionnaire_id IN ?", enrollment.UserID, true, questionnaireIDs).
		Distinct("questionnaire_id").Count(&passed).Error; err != nil {
		return "", err
	}
	if passed < int64(len(questionnaireIDs)) {
		return "Pass every quiz of the course to claim the certificate!", nil
	}
	return "", nil
}

// ClaimCertificate issues the course certificate, or files a request when the
// certification needs approval.
func ClaimCertificate(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "course_id")

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	enrollment, err := FindEnrollment(userId, course.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You are not enrolled in this course!", nil)
	}

	var existing courseModels.CertificateIssuance
	if err := db.Where("user_id = ? AND course_id = ? AND status IN ?", userId, course.ID,
		[]string{courseModels.IssuanceActive, courseModels.IssuanceRevoked}).
		Order("issued_at DESC").First(&existing).Error; err == nil {
		switch {
		case existing.Status == courseModels.IssuanceRevoked:
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Your certificate for this course has been revoked!", nil)
		case existing.Valid(time.Now()):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued!", existing)
		default:
			// past its expiry but not yet swept by the scheduler
			if err := db.Model(&existing).Update("status", courseModels.IssuanceExpired).Error; err != nil {
				logger.Log.Error().Err(err).Uint("issuance_id", existing.ID).Msg("error expiring certificate")
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to claim certificate!", nil)
			}
		}
	}

	var cert courseModels.Certification
	if err := db.Where("course_id = ? AND is_deleted = ? AND is_active = ?", course.ID, false, true).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No certificate is available for this course!", nil)
	}

	reason, err := checkEligibility(db, enrollment, cert)
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Msg("eligibility check failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to claim certificate!", nil)
	}
	if reason != "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, reason, nil)
	}

	if cert.RequiresApproval {
		var pending int64
		if err := db.Model(&courseModels.CertificateRequest{}).
			Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?", userId, course.ID, courseModels.RequestPending, false).
			Count(&pending).Error; err != nil {
			logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error counting certificate requests")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to request certificate!", nil)
		}
		if pending > 0 {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate request already pending!", nil)
		}

		request := courseModels.CertificateRequest{
			UserID:          userId,
			CourseID:        course.ID,
			CertificationID: cert.ID,
			EnrollmentID:    enrollment.ID,
			Status:          courseModels.RequestPending,
			RequestedAt:     time.Now(),
		}
		if err := db.Create(&request).Error; err != nil {
			logger.Log.Error().Err(err).Uint("user_id", userId).Msg("error creating certificate request")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to request certificate!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Certificate request submitted for approval.", request)
	}

	var student models.User
	if err := db.Where("id = ?", userId).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var issuance *courseModels.CertificateIssuance
	var rawToken string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureNoActiveIssuance(tx, student.ID, course.ID); err != nil {
			return err
		}
		var err error
		issuance, rawToken, err = issueCertificate(tx, student, course, cert)
		return err
	})
	if errors.Is(err, errAlreadyIssued) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued!", nil)
	}
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Uint("course_id", course.ID).Msg("certificate issuance failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	notifyIssued(student, course, issuance, rawToken)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate issued successfully!", fiber.Map{
		"certificate":        issuance,
		"verification_token": rawToken,
	})
}

func verificationView(issuance courseModels.CertificateIssuance) fiber.Map {
	view := fiber.Map{
		"valid":              issuance.Valid(time.Now()),
		"status":             issuance.Status,
		"certificate_number": issuance.CertificateNumber,
		"student_name":       "",
		"course_title":       "",
		"issued_at":          issuance.IssuedAt,
		"expires_at":         issuance.ExpiresAt,
		"revoked_at":         issuance.RevokedAt,
		"revocation_reason":  issuance.RevocationReason,
	}
	if issuance.User != nil {
		view["student_name"] = issuance.User.Name
	}
	if issuance.Course != nil {
		view["course_title"] = issuance.Course.Title
	}
	return view
}

func verifyWhere(c *fiber.Ctx, query string, arg interface{}) error {
	var issuance courseModels.CertificateIssuance
	if err := database.Database.Db.Preload("User").Preload("Course").
		Where(query, arg).First(&issuance).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	view := verificationView(issuance)
	message := "Certificate is valid."
	if !view["valid"].(bool) {
		message = "Certificate is not valid."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, view)
}

// VerifyCertificate looks a certificate up by its verification token
func VerifyCertificate(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Token is required!", nil)
	}
	return verifyWhere(c, "token_hash = ?", utils.HashToken(token))
}

// VerifyCertificateNumber looks a certificate up by its public number
func VerifyCertificateNumber(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}
	return verifyWhere(c, "certificate_number = ?", number)
}

// GetCertificate returns one of the user's own certificates
func GetCertificate(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := validators.ID(c, "id")

	var issuance courseModels.CertificateIssuance
	if err := database.Database.Db.Preload("Course").
		Where("id = ? AND user_id = ?", id, userId).First(&issuance).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", fiber.Map{
		"certificate": issuance,
		"valid":       issuance.Valid(time.Now()),
	})
}
