package main

import (
	"strings"
	"testing"

	courseModels "lms/models/course"
	"lms/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = `Title,Description,Author,Category,Level,Price_Cents,Currency,Duration_Hours,Thumbnail_URL
Intro to Go,Learn Go,Jane Doe,Programming,intermediate,4999,eur,12,https://img.example.com/go.png
Rust Basics,Learn Rust,John Roe,Programming,,abc,XX,-3,
,Missing title,Nobody,,,,,,
`

func TestParseCourseRow(t *testing.T) {
	header := map[string]int{"title": 0, "price_cents": 1, "level": 2}

	course, ok := parseCourseRow([]string{" Data Science 101 ", "1500", ""}, header, "USD")
	require.True(t, ok)
	assert.Equal(t, "Data Science 101", course.Title)
	assert.Equal(t, "data-science-101", course.Slug)
	assert.Equal(t, int64(1500), course.PriceCents)
	assert.Equal(t, "BEGINNER", course.Level)
	assert.Equal(t, "USD", course.Currency)
	assert.Equal(t, courseModels.StatusDraft, course.Status)

	_, ok = parseCourseRow([]string{"", "1", ""}, header, "USD")
	assert.False(t, ok)

	assert.Equal(t, "", getField([]string{"only"}, map[string]int{"x": 3}, "x"))
	assert.Equal(t, int64(0), parseInt("-5"))
	assert.Equal(t, int64(0), parseInt("1.5"))
}

func TestImportCourses(t *testing.T) {
	env := testutil.Setup(t)

	stats, err := importCourses(env.DB, strings.NewReader(catalogCSV), "USD")
	require.NoError(t, err)
	assert.Equal(t, importStats{inserted: 2, skipped: 1}, stats)

	var goCourse courseModels.Course
	require.NoError(t, env.DB.Where("slug = ?", "intro-to-go").First(&goCourse).Error)
	assert.Equal(t, "INTERMEDIATE", goCourse.Level)
	assert.Equal(t, "EUR", goCourse.Currency)
	assert.Equal(t, int64(4999), goCourse.PriceCents)
	assert.Equal(t, int64(12), goCourse.DurationHours)
	assert.False(t, goCourse.IsPublished)

	var rust courseModels.Course
	require.NoError(t, env.DB.Where("slug = ?", "rust-basics").First(&rust).Error)
	assert.Equal(t, int64(0), rust.PriceCents)
	assert.Equal(t, "USD", rust.Currency)
	assert.Equal(t, int64(0), rust.DurationHours)

	update := "title,price_cents\nIntro to Go,2999\n"
	stats, err = importCourses(env.DB, strings.NewReader(update), "USD")
	require.NoError(t, err)
	assert.Equal(t, importStats{updated: 1}, stats)

	require.NoError(t, env.DB.First(&goCourse, goCourse.ID).Error)
	assert.Equal(t, int64(2999), goCourse.PriceCents)

	var count int64
	env.DB.Model(&courseModels.Course{}).Count(&count)
	assert.Equal(t, int64(2), count)

	_, err = importCourses(env.DB, strings.NewReader("title\n"), "USD")
	assert.Error(t, err)
}
