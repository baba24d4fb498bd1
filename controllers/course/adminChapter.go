package controllers

import (
	"context"
	"time"

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

// AdminCreateChapter adds a chapter to a course
func AdminCreateChapter(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	reqData, ok := c.Locals("validatedChapter").(*courseValidator.CreateChapterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	chapter := courseModels.Chapter{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
	}
	if err := db.Create(&chapter).Error; err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error creating chapter")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create chapter!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Chapter created successfully!", chapter)
}

func findChapter(courseID, chapterID uint) (*courseModels.Chapter, error) {
	var chapter courseModels.Chapter
	err := database.Database.Db.
		Where("id = ? AND course_id = ? AND is_deleted = ?", chapterID, courseID, false).
		First(&chapter).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// AdminUpdateChapter updates a chapter of a course
func AdminUpdateChapter(c *fiber.Ctx) error {
	courseID := validators.ID(c, "course_id")
	chapterID := validators.ID(c, "chapter_id")

	reqData, ok := c.Locals("validatedChapterUpdate").(*courseValidator.UpdateChapterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	chapter, err := findChapter(courseID, chapterID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.OrderIndex != nil {
		updates["order_index"] = *reqData.OrderIndex
	}

	db := database.Database.Db
	if len(updates) > 0 {
		if err := db.Model(chapter).Updates(updates).Error; err != nil {
			logger.Log.Error().Err(err).Uint("chapter_id", chapterID).Msg("error updating chapter")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update chapter!", nil)
		}
	}
	db.First(chapter, chapter.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter updated successfully!", chapter)
}

// AdminDeleteChapter soft deletes a chapter together with its lectures
func AdminDeleteChapter(c *fiber.Ctx) error {
	courseID := validators.ID(c, "course_id")
	chapterID := validators.ID(c, "chapter_id")

	chapter, err := findChapter(courseID, chapterID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&courseModels.Lecture{}).
			Where("chapter_id = ? AND is_deleted = ?", chapter.ID, false).
			Updates(map[string]interface{}{"is_deleted": true, "is_published": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		return tx.Model(chapter).Update("is_deleted", true).Error
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("chapter_id", chapterID).Msg("error deleting chapter")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete chapter!", nil)
	}

	recalculateCourseEnrollments(courseID)
	utils.BumpCatalogVersion(context.Background())

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter deleted successfully!", nil)
}

// AdminListChapters lists a course's chapters with every lecture
func AdminListChapters(c *fiber.Ctx) error {
	courseID := validators.ID(c, "id")

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	outline, err := courseOutline(course.ID, false, nil)
	if err != nil {
		logger.Log.Error().Err(err).Uint("course_id", course.ID).Msg("error listing chapters")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chapters!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapters fetched successfully!", outline)
}
