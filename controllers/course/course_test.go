package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogListsOnlyPublishedCourses(t *testing.T) {
	env := testutil.Setup(t)
	env.SeedCourse(testutil.CourseOptions{Title: "Go Fundamentals"})
	env.SeedCourse(testutil.CourseOptions{Title: "Rust Basics"})
	env.SeedCourse(testutil.CourseOptions{Title: "Secret Draft", Unpublished: true})

	resp := env.Do(http.MethodGet, "/course/list", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)

	var body struct {
		Courses    []courseModels.Course `json:"courses"`
		Pagination struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	resp.Decode(t, &body)
	assert.Len(t, body.Courses, 2)
	assert.EqualValues(t, 2, body.Pagination.Total)
	assert.Equal(t, 1, body.Pagination.Page)
	assert.Equal(t, 10, body.Pagination.Limit)

	search := env.Do(http.MethodGet, "/course/list?search=rust", nil, "")
	search.Decode(t, &body)
	require.Len(t, body.Courses, 1)
	assert.Equal(t, "Rust Basics", body.Courses[0].Title)

	bad := env.Do(http.MethodGet, "/course/list?limit=500", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}

func TestCourseDetailsHidesLectureBodies(t *testing.T) {
	env := testutil.Setup(t)
	course, lectures := env.SeedCourse(testutil.CourseOptions{Lectures: 2})
	require.NoError(t, env.DB.Model(&lectures[0]).Update("is_preview", true).Error)

	resp := env.Do(http.MethodGet, fmt.Sprintf("/course/%d", course.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)

	var body struct {
		IsEnrolled bool `json:"is_enrolled"`
		Chapters   []struct {
			Lectures []courseModels.Lecture `json:"lectures"`
		} `json:"chapters"`
	}
	resp.Decode(t, &body)
	assert.False(t, body.IsEnrolled)
	require.Len(t, body.Chapters, 1)
	require.Len(t, body.Chapters[0].Lectures, 2)
	assert.Equal(t, "Some reading", body.Chapters[0].Lectures[0].TextContent)
	assert.Empty(t, body.Chapters[0].Lectures[1].TextContent)

	student := env.CreateUser("Student", "student@example.com", models.RoleUser)
	env.Enroll(student, course, courseModels.EnrollmentEnrolled)
	resp = env.Do(http.MethodGet, fmt.Sprintf("/course/%d", course.ID), nil, env.Token(student))
	resp.Decode(t, &body)
	assert.True(t, body.IsEnrolled)

	assert.Equal(t, http.StatusNotFound, env.Do(http.MethodGet, "/course/9999", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.Do(http.MethodGet, "/course/abc", nil, "").Code)
}

func TestEnrollInFreeCourse(t *testing.T) {
	env := testutil.Setup(t)
	course, _ := env.SeedCourse(testutil.CourseOptions{Lectures: 3})
	student := env.CreateUser("Student", "student@example.com", models.RoleUser)
	token := env.Token(student)

	resp := env.Do(http.MethodPost, fmt.Sprintf("/course/%d/enroll", course.ID), nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)

	var enrollment courseModels.Enrollment
	resp.Decode(t, &enrollment)
	assert.Equal(t, courseModels.EnrollmentEnrolled, enrollment.Status)
	assert.Equal(t, 3, enrollment.TotalLectures)

	assert.Contains(t, env.Events.Types(), utils.EventEnrollmentCreated)
	_, mailed := env.Mail.Last("student@example.com")
	assert.True(t, mailed)

	again := env.Do(http.MethodPost, fmt.Sprintf("/course/%d/enroll", course.ID), nil, token)
	assert.Equal(t, http.StatusConflict, again.Code)

	anon := env.Do(http.MethodPost, fmt.Sprintf("/course/%d/enroll", course.ID), nil, "")
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}

func TestEnrollRejectsPaidAndUnpublishedCourses(t *testing.T) {
	env := testutil.Setup(t)
	paid, _ := env.SeedCourse(testutil.CourseOptions{Title: "Paid", PriceCents: 4999})
	draft, _ := env.SeedCourse(testutil.CourseOptions{Title: "Draft", Unpublished: true})
	token := env.Token(env.CreateUser("Student", "student@example.com", models.RoleUser))

	resp := env.Do(http.MethodPost, fmt.Sprintf("/course/%d/enroll", paid.ID), nil, token)
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)
	assert.EqualValues(t, 4999, resp.Map(t)["price_cents"])

	resp = env.Do(http.MethodPost, fmt.Sprintf("/course/%d/enroll", draft.ID), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLectureCompletionDrivesProgress(t *testing.T) {
	env := testutil.Setup(t)
	course, lectures := env.SeedCourse(testutil.CourseOptions{Lectures: 2})
	student := env.CreateUser("Student", "student@example.com", models.RoleUser)
	token := env.Token(student)
	env.Enroll(student, course, courseModels.EnrollmentEnrolled)

	complete := func(l courseModels.Lecture) courseModels.Enrollment {
		t.Helper()
		resp := env.Do(http.MethodPost, fmt.Sprintf("/course/%d/lecture/%d/complete", course.ID, l.ID), nil, token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Message)
		var e courseModels.Enrollment
		resp.Decode(t, &e)
		return e
	}

	e := complete(lectures[0])
	assert.Equal(t, courseModels.EnrollmentInProgress, e.Status)
	assert.InDelta(t, 50.0, e.Progress, 0.001)
	assert.Nil(t, e.CompletedAt)

	// completing twice changes nothing
	e = complete(lectures[0])
	assert.InDelta(t, 50.0, e.Progress, 0.001)
	assert.Equal(t, 1, e.CompletedLectures)

	e = complete(lectures[1])
	assert.Equal(t, courseModels.EnrollmentCompleted, e.Status)
	assert.InDelta(t, 100.0, e.Progress, 0.001)
	assert.NotNil(t, e.CompletedAt)
	assert.Contains(t, env.Events.Types(), utils.EventCourseCompleted)

	progress := env.Do(http.MethodGet, fmt.Sprintf("/course/%d/progress", course.ID), nil, token)
	require.Equal(t, http.StatusOK, progress.Code)
	var body struct {
		CompletedLectureIDs []uint `json:"completed_lecture_ids"`
		Chapters            []struct {
			Total     int     `json:"total"`
			Completed int     `json:"completed"`
			Progress  float64 `json:"progress"`
		} `json:"chapters"`
	}
	progress.Decode(t, &body)
	assert.ElementsMatch(t, []uint{lectures[0].ID, lectures[1].ID}, body.CompletedLectureIDs)
	require.Len(t, body.Chapters, 1)
	assert.Equal(t, 2, body.Chapters[0].Completed)
}

func TestCourseContentRequiresEnrollment(t *testing.T) {
	env := testutil.Setup(t)
	course, lectures := env.SeedCourse(testutil.CourseOptions{})
	outsider := env.Token(env.CreateUser("Outsider", "out@example.com", models.RoleUser))

	resp := env.Do(http.MethodGet, fmt.Sprintf("/course/%d/content", course.ID), nil, outsider)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = env.Do(http.MethodPost, fmt.Sprintf("/course/%d/lecture/%d/complete", course.ID, lectures[0].ID), nil, outsider)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCourseReviews(t *testing.T) {
	env := testutil.Setup(t)
	course, _ := env.SeedCourse(testutil.CourseOptions{})
	alice := env.CreateUser("Alice", "alice@example.com", models.RoleUser)
	bob := env.CreateUser("Bob", "bob@example.com", models.RoleUser)
	env.Enroll(alice, course, courseModels.EnrollmentEnrolled)
	env.Enroll(bob, course, courseModels.EnrollmentEnrolled)
	path := fmt.Sprintf("/course/%d/review", course.ID)

	outsider := env.Token(env.CreateUser("Outsider", "out@example.com", models.RoleUser))
	assert.Equal(t, http.StatusForbidden, env.Do(http.MethodPost, path, map[string]interface{}{"rating": 5}, outsider).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.Do(http.MethodPost, path, map[string]interface{}{"rating": 6}, env.Token(alice)).Code)

	aliceToken := env.Token(alice)
	require.Equal(t, http.StatusCreated, env.Do(http.MethodPost, path, map[string]interface{}{"rating": 2, "comment": "meh"}, aliceToken).Code)
	require.Equal(t, http.StatusOK, env.Do(http.MethodPost, path, map[string]interface{}{"rating": 4, "comment": "grew on me"}, aliceToken).Code)
	require.Equal(t, http.StatusCreated, env.Do(http.MethodPost, path, map[string]interface{}{"rating": 5}, env.Token(bob)).Code)

	resp := env.Do(http.MethodGet, fmt.Sprintf("/course/%d/reviews", course.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Reviews []struct {
			Rating       int    `json:"rating"`
			ReviewerName string `json:"reviewer_name"`
		} `json:"reviews"`
		Rating struct {
			Average float64 `json:"average"`
			Count   int64   `json:"count"`
		} `json:"rating"`
	}
	resp.Decode(t, &body)
	assert.Len(t, body.Reviews, 2)
	assert.EqualValues(t, 2, body.Rating.Count)
	assert.InDelta(t, 4.5, body.Rating.Average, 0.001)

	require.Equal(t, http.StatusOK, env.Do(http.MethodDelete, path, nil, aliceToken).Code)
	assert.Equal(t, http.StatusNotFound, env.Do(http.MethodDelete, path, nil, aliceToken).Code)
}
