package controllers

import (
	"context"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateLecture adds a lecture to a chapter
func AdminCreateLecture(c *fiber.Ctx) error {
	courseID := validators.ID(c, "course_id")
	chapterID := validators.ID(c, "chapter_id")

	reqData, ok := c.Locals("validatedLecture").(*courseValidator.CreateLectureRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	chapter, err := findChapter(courseID, chapterID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
	}

	lecture := courseModels.Lecture{
		CourseID:        chapter.CourseID,
		ChapterID:       chapter.ID,
		Title:           reqData.Title,
		Description:     reqData.Description,
		ContentType:     reqData.ContentType,
		TextContent:     reqData.TextContent,
		VideoURL:        reqData.VideoURL,
		FileURL:         reqData.FileURL,
		DurationMinutes: reqData.DurationMinutes,
		OrderIndex:      reqData.OrderIndex,
		IsPreview:       reqData.IsPreview,
		IsPublished:     false,
	}

	if err := database.Database.Db.Create(&lecture).Error; err != nil {
		logger.Log.Error().Err(err).Uint("chapter_id", chapter.ID).Msg("error creating lecture")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lecture!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lecture created successfully!", lecture)
}

func findLecture(lectureID uint) (*courseModels.Lecture, error) {
	var lecture courseModels.Lecture
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lectureID, false).First(&lecture).Error; err != nil {
		return nil, err
	}
	return &lecture, nil
}

// AdminUpdateLecture updates a lecture. The merged lecture must still carry
// the body its content type needs.
func AdminUpdateLecture(c *fiber.Ctx) error {
	lectureID := validators.ID(c, "lecture_id")

	reqData, ok := c.Locals("validatedLectureUpdate").(*courseValidator.UpdateLectureRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lecture, err := findLecture(lectureID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	if reqData.Title != nil {
		lecture.Title = *reqData.Title
	}
	if reqData.Description != nil {
		lecture.Description = *reqData.Description
	}
	if reqData.ContentType != nil {
		lecture.ContentType = *reqData.ContentType
	}
	if reqData.TextContent != nil {
		lecture.TextContent = *reqData.TextContent
	}
	if reqData.VideoURL != nil {
		lecture.VideoURL = *reqData.VideoURL
	}
	if reqData.FileURL != nil {
		lecture.FileURL = *reqData.FileURL
	}
	if reqData.DurationMinutes != nil {
		lecture.DurationMinutes = *reqData.DurationMinutes
	}
	if reqData.OrderIndex != nil {
		lecture.OrderIndex = *reqData.OrderIndex
	}
	if reqData.IsPreview != nil {
		lecture.IsPreview = *reqData.IsPreview
	}

	if errors := courseValidator.CheckLectureContent(lecture.ContentType, lecture.TextContent, lecture.VideoURL, lecture.FileURL); errors != nil {
		return middleware.ValidationErrorResponse(c, errors)
	}

	if err := database.Database.Db.Save(lecture).Error; err != nil {
		logger.Log.Error().Err(err).Uint("lecture_id", lectureID).Msg("error updating lecture")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lecture!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture updated successfully!", lecture)
}

// AdminDeleteLecture soft deletes a lecture
func AdminDeleteLecture(c *fiber.Ctx) error {
	lectureID := validators.ID(c, "lecture_id")

	lecture, err := findLecture(lectureID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	if err := database.Database.Db.Model(lecture).Updates(map[string]interface{}{
		"is_deleted":   true,
		"is_published": false,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("lecture_id", lectureID).Msg("error deleting lecture")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lecture!", nil)
	}

	recalculateCourseEnrollments(lecture.CourseID)
	utils.BumpCatalogVersion(context.Background())

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture deleted successfully!", nil)
}

// AdminPublishLecture publishes or unpublishes a lecture
func AdminPublishLecture(c *fiber.Ctx) error {
	lectureID := validators.ID(c, "lecture_id")

	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lecture, err := findLecture(lectureID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	if err := database.Database.Db.Model(lecture).Update("is_published", *reqData.IsPublished).Error; err != nil {
		logger.Log.Error().Err(err).Uint("lecture_id", lectureID).Msg("error publishing lecture")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lecture!", nil)
	}
	lecture.IsPublished = *reqData.IsPublished

	recalculateCourseEnrollments(lecture.CourseID)
	utils.BumpCatalogVersion(context.Background())

	message := "Lecture unpublished successfully!"
	if lecture.IsPublished {
		message = "Lecture published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, lecture)
}
