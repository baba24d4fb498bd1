package controllers

import (
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// AdminGetCourseEnrollments lists the students enrolled in a course
func AdminGetCourseEnrollments(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")
	q := validators.GetList(c)

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	base := db.Model(&courseModels.Enrollment{}).Where("course_id = ? AND is_deleted = ?", course.ID, false)
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	base.Count(&total)

	var enrollments []courseModels.Enrollment
	if err := base.Preload("User").Order("created_at DESC, id DESC").
		Offset(q.Offset()).Limit(q.Limit).Find(&enrollments).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error fetching enrollments")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	type enrollmentRow struct {
		courseModels.Enrollment
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}
	rows := make([]enrollmentRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := enrollmentRow{Enrollment: e}
		if e.User != nil {
			row.UserName = e.User.Name
			row.UserEmail = e.User.Email
		}
		row.User = nil
		rows = append(rows, row)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"course":      course,
		"enrollments": rows,
		"pagination":  q.Pagination(total),
	})
}

// AdminGetStudentProgress returns a student's enrollments, quiz results and
// certificates
func AdminGetStudentProgress(c *fiber.Ctx) error {
	studentID := validators.ID(c, "user_id")

	db := database.Database.Db
	var student models.User
	if err := db.Where("id = ? AND is_deleted = ?", studentID, false).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var enrollments []courseModels.Enrollment
	db.Preload("Course").Where("user_id = ? AND is_deleted = ?", student.ID, false).
		Order("created_at DESC").Find(&enrollments)

	var attempts []courseModels.QuizAttempt
	db.Where("user_id = ?", student.ID).Order("created_at DESC, id DESC").Find(&attempts)

	var certificates []courseModels.CertificateIssuance
	db.Preload("Course").Where("user_id = ?", student.ID).Order("issued_at DESC").Find(&certificates)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Student progress fetched successfully!", fiber.Map{
		"user":          student,
		"enrollments":   enrollments,
		"quiz_attempts": attempts,
		"certificates":  certificates,
	})
}

// AdminDashboardStats returns platform totals and recent activity
func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db

	var totalCourses, publishedCourses, totalUsers, totalEnrollments, completedEnrollments int64
	var pendingCertificates, issuedCertificates, paidOrders, weekEnrollments, monthEnrollments int64
	var revenue int64

	db.Model(&courseModels.Course{}).Where("is_deleted = ?", false).Count(&totalCourses)
	db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true).Count(&publishedCourses)
	db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&totalUsers)
	db.Model(&courseModels.Enrollment{}).Where("is_deleted = ?", false).Count(&totalEnrollments)
	db.Model(&courseModels.Enrollment{}).Where("is_deleted = ? AND status = ?", false, courseModels.EnrollmentCompleted).Count(&completedEnrollments)
	db.Model(&courseModels.CertificateRequest{}).Where("is_deleted = ? AND status = ?", false, courseModels.RequestPending).Count(&pendingCertificates)
	db.Model(&courseModels.CertificateIssuance{}).Where("status = ?", courseModels.IssuanceActive).Count(&issuedCertificates)
	db.Model(&commerce.Order{}).Where("status = ?", commerce.OrderPaid).Count(&paidOrders)
	db.Model(&commerce.Order{}).Where("status = ?", commerce.OrderPaid).
		Select("COALESCE(SUM(total_cents), 0)").Scan(&revenue)

	t := now.New(time.Now())
	db.Model(&courseModels.Enrollment{}).Where("is_deleted = ? AND created_at >= ?", false, t.BeginningOfWeek()).Count(&weekEnrollments)
	db.Model(&courseModels.Enrollment{}).Where("is_deleted = ? AND created_at >= ?", false, t.BeginningOfMonth()).Count(&monthEnrollments)

	type RecentEnrollment struct {
		UserName   string    `json:"user_name"`
		CourseName string    `json:"course_name"`
		Status     string    `json:"status"`
		EnrolledAt time.Time `json:"enrolled_at"`
	}

	var recentEnrollments []courseModels.Enrollment
	db.Preload("User").Preload("Course").Where("is_deleted = ?", false).
		Order("created_at DESC, id DESC").Limit(5).Find(&recentEnrollments)

	recent := make([]RecentEnrollment, 0, len(recentEnrollments))
	for _, e := range recentEnrollments {
		r := RecentEnrollment{Status: e.Status, EnrolledAt: e.CreatedAt}
		if e.User != nil {
			r.UserName = e.User.Name
		}
		if e.Course != nil {
			r.CourseName = e.Course.Title
		}
		recent = append(recent, r)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"stats": fiber.Map{
			"total_courses":          totalCourses,
			"published_courses":      publishedCourses,
			"total_users":            totalUsers,
			"total_enrollments":      totalEnrollments,
			"completed_enrollments":  completedEnrollments,
			"pending_certificates":   pendingCertificates,
			"issued_certificates":    issuedCertificates,
			"paid_orders":            paidOrders,
			"revenue_cents":          revenue,
			"enrollments_this_week":  weekEnrollments,
			"enrollments_this_month": monthEnrollments,
		},
		"recent_enrollments": recent,
	})
}
