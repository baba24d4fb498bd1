package main

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"lms/config"
	"lms/database"
	"lms/logger"
	courseModels "lms/models/course"
	"lms/utils"

	"gorm.io/gorm"
)

// Imports a course catalog from CSV. Columns: title, description, author,
// category, level, price_cents, currency, duration_hours, thumbnail_url.
// Rows are matched on the slug of their title; new courses start as drafts.
func main() {
	config.LoadConfig()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.Env)
	database.ConnectDb()
	utils.InitCache()

	path := "courses.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", path).Msg("failed to open CSV file")
	}
	defer file.Close()

	stats, err := importCourses(database.Database.Db, file, config.AppConfig.Currency)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("import failed")
	}

	logger.Log.Info().
		Int("inserted", stats.inserted).
		Int("updated", stats.updated).
		Int("skipped", stats.skipped).
		Msg("import complete")
	utils.BumpCatalogVersion(context.Background())
}

type importStats struct {
	inserted, updated, skipped int
}

func importCourses(db *gorm.DB, r io.Reader, defaultCurrency string) (importStats, error) {
	var stats importStats

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return stats, err
	}
	if len(records) < 2 {
		return stats, errors.New("CSV file is empty or has only headers")
	}

	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for i, row := range records[1:] {
		course, ok := parseCourseRow(row, headerIndex, defaultCurrency)
		if !ok {
			logger.Log.Warn().Int("row", i+2).Msg("skipping row without a title")
			stats.skipped++
			continue
		}

		var existing courseModels.Course
		err := db.Where("slug = ?", course.Slug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&course).Error; err != nil {
				logger.Log.Error().Err(err).Str("slug", course.Slug).Msg("error inserting course")
				stats.skipped++
				continue
			}
			stats.inserted++
		case err != nil:
			return stats, err
		default:
			if err := db.Model(&existing).Updates(map[string]interface{}{
				"title":          course.Title,
				"description":    course.Description,
				"author":         course.Author,
				"category":       course.Category,
				"level":          course.Level,
				"price_cents":    course.PriceCents,
				"currency":       course.Currency,
				"duration_hours": course.DurationHours,
				"thumbnail_url":  course.ThumbnailURL,
			}).Error; err != nil {
				logger.Log.Error().Err(err).Str("slug", course.Slug).Msg("error updating course")
				stats.skipped++
				continue
			}
			stats.updated++
		}
	}
	return stats, nil
}

func parseCourseRow(row []string, headerIndex map[string]int, defaultCurrency string) (courseModels.Course, bool) {
	title := getField(row, headerIndex, "title")
	if title == "" {
		return courseModels.Course{}, false
	}

	currency := strings.ToUpper(getField(row, headerIndex, "currency"))
	if len(currency) != 3 {
		currency = defaultCurrency
	}
	level := strings.ToUpper(getField(row, headerIndex, "level"))
	if level == "" {
		level = "BEGINNER"
	}

	return courseModels.Course{
		Title:         title,
		Slug:          utils.Slugify(title),
		Description:   getField(row, headerIndex, "description"),
		Author:        getField(row, headerIndex, "author"),
		Category:      getField(row, headerIndex, "category"),
		Level:         level,
		PriceCents:    parseInt(getField(row, headerIndex, "price_cents")),
		Currency:      currency,
		DurationHours: parseInt(getField(row, headerIndex, "duration_hours")),
		ThumbnailURL:  getField(row, headerIndex, "thumbnail_url"),
		Status:        courseModels.StatusDraft,
	}, true
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}
