package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"
	certificateValidator "lms/validators/certificate"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminCreateCertification defines the certificate awarded by a course
func AdminCreateCertification(c *fiber.Ctx) error {
	courseID := validators.ID(c, "course_id")

	reqData, ok := c.Locals("validatedCertification").(*certificateValidator.CreateCertificationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var existing int64
	db.Model(&courseModels.Certification{}).Where("course_id = ? AND is_deleted = ?", course.ID, false).Count(&existing)
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This course already has a certification!", nil)
	}

	isActive := true
	if reqData.IsActive != nil {
		isActive = *reqData.IsActive
	}

	cert := courseModels.Certification{
		CourseID:          course.ID,
		Title:             reqData.Title,
		BodyTemplate:      reqData.BodyTemplate,
		ValidityDays:      reqData.ValidityDays,
		RequireAllQuizzes: reqData.RequireAllQuizzes,
		RequiresApproval:  reqData.RequiresApproval,
		IsActive:          isActive,
	}
	if err := db.Create(&cert).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error creating certification")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create certification!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certification created successfully!", cert)
}

func findCertification(id uint) (*courseModels.Certification, error) {
	var cert courseModels.Certification
	if err := database.Database.Db.Preload("Placeholders").
		Where("id = ? AND is_deleted = ?", id, false).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// AdminUpdateCertification updates the provided certification fields
func AdminUpdateCertification(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedCertificationUpdate").(*certificateValidator.UpdateCertificationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	cert, err := findCertification(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.BodyTemplate != nil {
		updates["body_template"] = *reqData.BodyTemplate
	}
	if reqData.ValidityDays != nil {
		updates["validity_days"] = *reqData.ValidityDays
	}
	if reqData.RequireAllQuizzes != nil {
		updates["require_all_quizzes"] = *reqData.RequireAllQuizzes
	}
	if reqData.RequiresApproval != nil {
		updates["requires_approval"] = *reqData.RequiresApproval
	}
	if reqData.IsActive != nil {
		updates["is_active"] = *reqData.IsActive
	}

	db := database.Database.Db
	if len(updates) > 0 {
		if err := db.Model(cert).Updates(updates).Error; err != nil {
			logger.Log.Error().Err(err).Uint("certification_id", id).Msg("error updating certification")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certification!", nil)
		}
	}
	cert, _ = findCertification(id)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification updated successfully!", cert)
}

// AdminGetCertification returns a certification with its placeholders and
// the template keys that are still unfilled
func AdminGetCertification(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	cert, err := findCertification(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
	}

	defined := make(map[string]bool, len(cert.Placeholders))
	for _, p := range cert.Placeholders {
		defined[p.Key] = true
	}
	unresolved := []string{}
	for _, key := range utils.TemplateKeys(cert.BodyTemplate) {
		if !defined[key] && !ReservedPlaceholders[key] {
			unresolved = append(unresolved, key)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification fetched successfully!", fiber.Map{
		"certification":           cert,
		"unresolved_placeholders": unresolved,
	})
}

// AdminCreatePlaceholder adds a custom template placeholder
func AdminCreatePlaceholder(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedPlaceholder").(*certificateValidator.PlaceholderRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if ReservedPlaceholders[reqData.Key] {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This placeholder key is reserved!", nil)
	}

	cert, err := findCertification(id)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
	}

	for _, p := range cert.Placeholders {
		if p.Key == reqData.Key {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Placeholder key already exists!", nil)
		}
	}

	placeholder := courseModels.Placeholder{
		CertificationID: cert.ID,
		Key:             reqData.Key,
		Value:           reqData.Value,
	}
	if err := database.Database.Db.Create(&placeholder).Error; err != nil {
		logger.Log.Error().Err(err).Uint("certification_id", cert.ID).Msg("error creating placeholder")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create placeholder!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Placeholder created successfully!", placeholder)
}

// AdminDeletePlaceholder removes a custom placeholder
func AdminDeletePlaceholder(c *fiber.Ctx) error {
	id := validators.ID(c, "id")

	result := database.Database.Db.Unscoped().Where("id = ?", id).Delete(&courseModels.Placeholder{})
	if result.Error != nil {
		logger.Log.Error().Err(result.Error).Uint("placeholder_id", id).Msg("error deleting placeholder")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete placeholder!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Placeholder not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Placeholder deleted successfully!", nil)
}

// AdminGetPendingCertificates lists requests awaiting review
func AdminGetPendingCertificates(c *fiber.Ctx) error {
	q := validators.GetList(c)

	db := database.Database.Db
	base := db.Model(&courseModels.CertificateRequest{}).
		Where("status = ? AND is_deleted = ?", courseModels.RequestPending, false).
		Session(&gorm.Session{})

	var total int64
	base.Count(&total)

	var requests []courseModels.CertificateRequest
	if err := base.Preload("User").Preload("Course").Order("requested_at ASC, id ASC").
		Offset(q.Offset()).Limit(q.Limit).Find(&requests).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching pending certificates")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending certificate requests fetched successfully!", fiber.Map{
		"requests":   requests,
		"pagination": q.Pagination(total),
	})
}

// AdminGetIssuedCertificates lists issued certificates
func AdminGetIssuedCertificates(c *fiber.Ctx) error {
	q := validators.GetList(c)

	db := database.Database.Db
	base := db.Model(&courseModels.CertificateIssuance{})
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		base = base.Where("certificate_number LIKE ?", "%"+q.Search+"%")
	}
	base = base.Session(&gorm.Session{})

	var total int64
	base.Count(&total)

	var issuances []courseModels.CertificateIssuance
	if err := base.Preload("User").Preload("Course").Order("issued_at DESC, id DESC").
		Offset(q.Offset()).Limit(q.Limit).Find(&issuances).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching issued certificates")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Issued certificates fetched successfully!", fiber.Map{
		"certificates": issuances,
		"pagination":   q.Pagination(total),
	})
}

var errAlreadyIssued = errors.New("certificate already issued")

func findPendingRequest(c *fiber.Ctx) (*courseModels.CertificateRequest, error) {
	id := validators.ID(c, "request_id")

	var request courseModels.CertificateRequest
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", id, false).First(&request).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate request not found!", nil)
	}
	if request.Status != courseModels.RequestPending {
		return nil, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate request is already "+request.Status+"!", nil)
	}
	return &request, nil
}

// AdminApproveCertificate approves a pending request and issues the certificate
func AdminApproveCertificate(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)

	request, err := findPendingRequest(c)
	if request == nil {
		return err
	}

	db := database.Database.Db
	var student models.User
	if err := db.Where("id = ?", request.UserID).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	var course courseModels.Course
	if err := db.Where("id = ?", request.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	var cert courseModels.Certification
	if err := db.Where("id = ? AND is_deleted = ?", request.CertificationID, false).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
	}

	var issuance *courseModels.CertificateIssuance
	var rawToken string
	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureNoActiveIssuance(tx, student.ID, course.ID); err != nil {
			return err
		}

		if err := tx.Model(request).Updates(map[string]interface{}{
			"status":      courseModels.RequestApproved,
			"reviewed_at": now,
			"reviewed_by": adminID,
		}).Error; err != nil {
			return err
		}

		var err error
		issuance, rawToken, err = issueCertificate(tx, student, course, cert)
		return err
	})
	if errors.Is(err, errAlreadyIssued) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this user!", nil)
	}
	if err != nil {
		logger.Log.Error().Err(err).Uint("request_id", request.ID).Msg("certificate approval failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve certificate!", nil)
	}

	notifyIssued(student, course, issuance, rawToken)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate approved and issued!", fiber.Map{
		"certificate":        issuance,
		"verification_token": rawToken,
	})
}

// AdminRejectCertificate rejects a pending request with a reason
func AdminRejectCertificate(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)

	reqData, ok := c.Locals("validatedReason").(*certificateValidator.ReasonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	request, err := findPendingRequest(c)
	if request == nil {
		return err
	}

	db := database.Database.Db
	if err := db.Model(request).Updates(map[string]interface{}{
		"status":           courseModels.RequestRejected,
		"reviewed_at":      time.Now(),
		"reviewed_by":      adminID,
		"rejection_reason": reqData.Reason,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("request_id", request.ID).Msg("error rejecting certificate")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reject certificate!", nil)
	}

	var student models.User
	var course courseModels.Course
	if db.Where("id = ?", request.UserID).First(&student).Error == nil &&
		db.Where("id = ?", request.CourseID).First(&course).Error == nil {
		utils.SendCertificateRejectedEmail(student.Email, student.Name, course.Title, reqData.Reason)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate request rejected.", request)
}

// AdminRevokeCertificate revokes an active certificate
func AdminRevokeCertificate(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	id := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedReason").(*certificateValidator.ReasonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var issuance courseModels.CertificateIssuance
	if err := db.Where("id = ?", id).First(&issuance).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}
	if issuance.Status != courseModels.IssuanceActive {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only active certificates can be revoked!", nil)
	}

	now := time.Now()
	if err := db.Model(&issuance).Updates(map[string]interface{}{
		"status":            courseModels.IssuanceRevoked,
		"revoked_at":        now,
		"revoked_by":        adminID,
		"revocation_reason": reqData.Reason,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("issuance_id", id).Msg("error revoking certificate")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to revoke certificate!", nil)
	}
	db.First(&issuance, issuance.ID)

	utils.PublishEvent(utils.EventCertificateRevoked, issuance.ID, fiber.Map{
		"issuance_id":        issuance.ID,
		"user_id":            issuance.UserID,
		"certificate_number": issuance.CertificateNumber,
		"reason":             reqData.Reason,
	})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate revoked successfully!", issuance)
}
