package controllers

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type lectureProgress struct {
	courseModels.Lecture
	IsCompleted bool `json:"is_completed"`
}

type chapterContent struct {
	courseModels.Chapter
	Lectures []lectureProgress `json:"lectures"`
}

func completedLectureIDs(userID, courseID uint) (map[uint]bool, error) {
	var ids []uint
	if err := database.Database.Db.Model(&courseModels.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Pluck("lecture_id", &ids).Error; err != nil {
		return nil, err
	}
	done := make(map[uint]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// GetCourseContent returns the full course content for an enrolled user.
func GetCourseContent(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "id")

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	enrollment, err := requireEnrollment(c, userId, course.ID)
	if enrollment == nil {
		return err
	}

	outline, err := courseOutline(course.ID, true, nil)
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error loading course content")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}
	done, err := completedLectureIDs(userId, course.ID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("error loading completions")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	chapters := make([]chapterContent, 0, len(outline))
	for _, ch := range outline {
		lectures := make([]lectureProgress, 0, len(ch.Lectures))
		for _, l := range ch.Lectures {
			lectures = append(lectures, lectureProgress{Lecture: l, IsCompleted: done[l.ID]})
		}
		chapters = append(chapters, chapterContent{Chapter: ch.Chapter, Lectures: lectures})
	}

	var questionnaires []courseModels.Questionnaire
	db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", course.ID, false, true).
		Order("id ASC").Find(&questionnaires)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"course":         course,
		"enrollment":     enrollment,
		"chapters":       chapters,
		"questionnaires": questionnaires,
	})
}

// MarkLectureComplete records a lecture completion and refreshes progress.
// Completing the same lecture twice is a no-op.
func MarkLectureComplete(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "course_id")
	lectureID := validators.ID(c, "lecture_id")

	enrollment, err := requireEnrollment(c, userId, courseID)
	if enrollment == nil {
		return err
	}

	db := database.Database.Db
	var lecture courseModels.Lecture
	if err := db.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?",
		lectureID, courseID, false, true).First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	wasCompleted := enrollment.Status == courseModels.EnrollmentCompleted

	err = db.Transaction(func(tx *gorm.DB) error {
		completion := courseModels.LectureCompletion{UserID: userId, LectureID: lecture.ID, CourseID: courseID}
		if err := tx.Where("user_id = ? AND lecture_id = ?", userId, lecture.ID).
			FirstOrCreate(&completion).Error; err != nil {
			return err
		}
		return RecalculateProgress(tx, enrollment)
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userId).Uint("lecture_id", lectureID).Msg("failed to mark lecture complete")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lecture as complete!", nil)
	}

	if !wasCompleted && enrollment.Status == courseModels.EnrollmentCompleted {
		utils.PublishEvent(utils.EventCourseCompleted, enrollment.ID, fiber.Map{
			"enrollment_id": enrollment.ID,
			"user_id":       userId,
			"course_id":     courseID,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture marked as complete!", enrollment)
}

type chapterProgress struct {
	ChapterID uint    `json:"chapter_id"`
	Title     string  `json:"title"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Progress  float64 `json:"progress"`
}

// GetCourseProgress reports overall and per-chapter progress.
func GetCourseProgress(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := validators.ID(c, "course_id")

	enrollment, err := requireEnrollment(c, userId, courseID)
	if enrollment == nil {
		return err
	}

	outline, err := courseOutline(courseID, true, nil)
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", courseID).Msg("error loading course outline")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	done, err := completedLectureIDs(userId, courseID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("error loading completions")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	completedIDs := make([]uint, 0, len(done))
	chapters := make([]chapterProgress, 0, len(outline))
	for _, ch := range outline {
		p := chapterProgress{ChapterID: ch.ID, Title: ch.Title, Total: len(ch.Lectures)}
		for _, l := range ch.Lectures {
			if done[l.ID] {
				p.Completed++
				completedIDs = append(completedIDs, l.ID)
			}
		}
		if p.Total > 0 {
			p.Progress = float64(p.Completed) / float64(p.Total) * 100
		}
		chapters = append(chapters, p)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":            enrollment,
		"completed_lecture_ids": completedIDs,
		"chapters":              chapters,
	})
}
