package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetAllCourses lists published courses for the public catalog.
func GetAllCourses(c *fiber.Ctx) error {
	q := validators.GetList(c)
	ctx := context.Background()

	cacheKey, cached := utils.CatalogKey(ctx, "list",
		strconv.Itoa(q.Page), strconv.Itoa(q.Limit), strings.ToLower(q.Search), strings.ToLower(q.Category))
	if cached {
		if body, ok, err := utils.Catalog.Get(ctx, cacheKey); err == nil && ok {
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", json.RawMessage(body))
		}
	}

	db := database.Database.Db
	base := db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true)
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.Category != "" {
		base = base.Where("LOWER(category) = ?", strings.ToLower(q.Category))
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error counting courses")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []courseModels.Course
	if err := base.Order("created_at DESC, id DESC").Offset(q.Offset()).Limit(q.Limit).Find(&courses).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error fetching courses")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	data := fiber.Map{
		"courses":    courses,
		"pagination": q.Pagination(total),
	}

	if cached {
		if body, err := json.Marshal(data); err == nil {
			if err := utils.Catalog.Set(ctx, cacheKey, string(body), utils.CatalogTTL()); err != nil {
				logger.Log.Warn().Err(err).Msg("failed to cache catalog page")
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", data)
}

type chapterOutline struct {
	courseModels.Chapter
	Lectures []courseModels.Lecture `json:"lectures"`
}

// GetCourseDetails returns a published course with its outline. Lecture
// bodies are only included for preview lectures.
func GetCourseDetails(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	outline, err := courseOutline(course.ID, true, func(l courseModels.Lecture) courseModels.Lecture {
		if l.IsPreview {
			return l
		}
		return l.Outline()
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error loading course outline")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	lectureCount := 0
	for _, ch := range outline {
		lectureCount += len(ch.Lectures)
	}

	rating, err := courseRating(db, course.ID)
	if err != nil {
		logger.Log.Warn().Err(err).Uint("course_id", course.ID).Msg("error computing rating")
	}

	data := fiber.Map{
		"course":        course,
		"chapters":      outline,
		"lecture_count": lectureCount,
		"rating":        rating,
		"is_enrolled":   false,
	}

	if userId, ok := middleware.CurrentUserID(c); ok {
		enrollment, err := FindEnrollment(userId, course.ID)
		if err == nil {
			data["is_enrolled"] = true
			data["enrollment"] = enrollment
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", data)
}

// courseOutline loads ordered chapters with their lectures, passing each
// lecture through shape.
func courseOutline(courseID uint, publishedOnly bool, shape func(courseModels.Lecture) courseModels.Lecture) ([]chapterOutline, error) {
	db := database.Database.Db

	var chapters []courseModels.Chapter
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index ASC, id ASC").Find(&chapters).Error; err != nil {
		return nil, err
	}

	lectureQuery := db.Where("course_id = ? AND is_deleted = ?", courseID, false)
	if publishedOnly {
		lectureQuery = lectureQuery.Where("is_published = ?", true)
	}
	var lectures []courseModels.Lecture
	if err := lectureQuery.Order("order_index ASC, id ASC").Find(&lectures).Error; err != nil {
		return nil, err
	}

	byChapter := make(map[uint][]courseModels.Lecture, len(chapters))
	for _, l := range lectures {
		if shape != nil {
			l = shape(l)
		}
		byChapter[l.ChapterID] = append(byChapter[l.ChapterID], l)
	}

	outline := make([]chapterOutline, 0, len(chapters))
	for _, ch := range chapters {
		ls := byChapter[ch.ID]
		if ls == nil {
			ls = []courseModels.Lecture{}
		}
		outline = append(outline, chapterOutline{Chapter: ch, Lectures: ls})
	}
	return outline, nil
}

func FindEnrollment(userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := database.Database.Db.
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// requireEnrollment writes the error response itself when the user is not
// enrolled; callers return the error it gives back when enrollment is nil.
func requireEnrollment(c *fiber.Ctx, userID, courseID uint) (*courseModels.Enrollment, error) {
	enrollment, err := FindEnrollment(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
		}
		logger.Log.Error().Err(err).Msg("enrollment lookup failed")
		return nil, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify enrollment!", nil)
	}
	return enrollment, nil
}
