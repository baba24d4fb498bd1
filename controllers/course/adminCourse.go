package controllers

import (
	"context"
	"fmt"
	"strings"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// uniqueSlug derives a slug from title, appending -2, -3... until no other
// course (deleted ones included) uses it.
func uniqueSlug(db *gorm.DB, title string, excludeID uint) (string, error) {
	base := utils.Slugify(title)
	for n := 1; ; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		var count int64
		q := db.Unscoped().Model(&courseModels.Course{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

// AdminCreateCourse creates a new course
func AdminCreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	slug, err := uniqueSlug(db, reqData.Title, 0)
	if err != nil {
		logger.Log.Error().Err(err).Msg("slug generation failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	currency := strings.ToUpper(reqData.Currency)
	if currency == "" {
		currency = config.AppConfig.Currency
	}

	course := courseModels.Course{
		Title:         reqData.Title,
		Slug:          slug,
		Description:   reqData.Description,
		Author:        reqData.Author,
		Category:      reqData.Category,
		Level:         reqData.Level,
		PriceCents:    reqData.PriceCents,
		Currency:      currency,
		DurationHours: reqData.DurationHours,
		ThumbnailURL:  reqData.ThumbnailURL,
		Status:        courseModels.StatusDraft,
		IsPublished:   false,
	}

	if err := db.Create(&course).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error creating course")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// AdminUpdateCourse updates only the provided fields of a course
func AdminUpdateCourse(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedCourseUpdate").(*courseValidator.UpdateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil && *reqData.Title != course.Title {
		slug, err := uniqueSlug(db, *reqData.Title, course.ID)
		if err != nil {
			logger.Log.Error().Err(err).Msg("slug generation failed")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
		}
		updates["title"] = *reqData.Title
		updates["slug"] = slug
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Author != nil {
		updates["author"] = *reqData.Author
	}
	if reqData.Category != nil {
		updates["category"] = *reqData.Category
	}
	if reqData.Level != nil {
		updates["level"] = *reqData.Level
	}
	if reqData.PriceCents != nil {
		updates["price_cents"] = *reqData.PriceCents
	}
	if reqData.Currency != nil {
		updates["currency"] = strings.ToUpper(*reqData.Currency)
	}
	if reqData.DurationHours != nil {
		updates["duration_hours"] = *reqData.DurationHours
	}
	if reqData.ThumbnailURL != nil {
		updates["thumbnail_url"] = *reqData.ThumbnailURL
	}
	if reqData.Status != nil {
		updates["status"] = *reqData.Status
	}

	if len(updates) > 0 {
		if err := db.Model(&course).Updates(updates).Error; err != nil {
			logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error updating course")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
		}
		utils.BumpCatalogVersion(context.Background())
	}
	db.First(&course, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// AdminDeleteCourse soft deletes a course
func AdminDeleteCourse(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := db.Model(&course).Updates(map[string]interface{}{
		"is_deleted":   true,
		"is_published": false,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error deleting course")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}
	utils.BumpCatalogVersion(context.Background())

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// AdminGetAllCourses lists courses in every status
func AdminGetAllCourses(c *fiber.Ctx) error {
	q := validators.GetList(c)

	db := database.Database.Db
	base := db.Model(&courseModels.Course{}).Where("is_deleted = ?", false)
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		base = base.Where("LOWER(category) = ?", strings.ToLower(q.Category))
	}
	base = base.Session(&gorm.Session{})

	var total int64
	base.Count(&total)

	var courses []courseModels.Course
	if err := base.Order("created_at DESC, id DESC").Offset(q.Offset()).Limit(q.Limit).Find(&courses).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching courses")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": q.Pagination(total),
	})
}

// AdminGetCourseDetails returns a course with all chapters and lectures
func AdminGetCourseDetails(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	outline, err := courseOutline(course.ID, false, nil)
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error loading course outline")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	var lectureCount, publishedLectures, enrollmentCount int64
	db.Model(&courseModels.Lecture{}).Where("course_id = ? AND is_deleted = ?", course.ID, false).Count(&lectureCount)
	db.Model(&courseModels.Lecture{}).Where("course_id = ? AND is_deleted = ? AND is_published = ?", course.ID, false, true).Count(&publishedLectures)
	db.Model(&courseModels.Enrollment{}).Where("course_id = ? AND is_deleted = ?", course.ID, false).Count(&enrollmentCount)

	var certification *courseModels.Certification
	var cert courseModels.Certification
	if err := db.Where("course_id = ? AND is_deleted = ?", course.ID, false).First(&cert).Error; err == nil {
		certification = &cert
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":             course,
		"chapters":           outline,
		"lecture_count":      lectureCount,
		"published_lectures": publishedLectures,
		"enrollment_count":   enrollmentCount,
		"certification":      certification,
	})
}

// AdminPublishCourse publishes or unpublishes a course. Publishing needs at
// least one published lecture.
func AdminPublishCourse(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	updates := map[string]interface{}{"is_published": *reqData.IsPublished}
	if *reqData.IsPublished {
		var published int64
		db.Model(&courseModels.Lecture{}).
			Where("course_id = ? AND is_deleted = ? AND is_published = ?", course.ID, false, true).
			Count(&published)
		if published == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Cannot publish course without any published lecture!", nil)
		}
		updates["status"] = courseModels.StatusActive
	}

	if err := db.Model(&course).Updates(updates).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error publishing course")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}
	utils.BumpCatalogVersion(context.Background())
	db.First(&course, course.ID)

	message := "Course unpublished successfully!"
	if course.IsPublished {
		message = "Course published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}
