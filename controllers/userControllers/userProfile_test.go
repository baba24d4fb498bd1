package userController_test

import (
	"net/http"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	token := env.Token(user)

	assert.Equal(t, http.StatusUnauthorized, env.Do(http.MethodGet, "/user/profile", nil, "").Code)

	resp := env.Do(http.MethodGet, "/user/profile", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	profile := resp.Map(t)
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.NotContains(t, profile, "password")

	resp = env.Do(http.MethodPatch, "/user/profile", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.Do(http.MethodPatch, "/user/profile", map[string]string{"avatar_url": "not a url"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = env.Do(http.MethodPatch, "/user/profile", map[string]string{
		"name": "  Ada Lovelace ",
		"bio":  "Analyst",
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	profile = resp.Map(t)
	assert.Equal(t, "Ada Lovelace", profile["name"])
	assert.Equal(t, "Analyst", profile["bio"])
}

func TestLoginHistoryList(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	other := env.CreateUser("Bob", "bob@example.com", models.RoleUser)

	base := time.Now().Add(-time.Hour)
	for i, success := range []bool{false, true, true} {
		require.NoError(t, env.DB.Create(&models.LoginHistory{
			UserID:    user.ID,
			IPAddress: "10.0.0.1",
			Success:   success,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, env.DB.Create(&models.LoginHistory{UserID: other.ID, Success: true, Timestamp: time.Now()}).Error)

	resp := env.Do(http.MethodGet, "/user/login-history?limit=2", nil, env.Token(user))
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		LoginHistory []models.LoginHistory `json:"loginHistory"`
		Pagination   map[string]interface{} `json:"pagination"`
	}
	resp.Decode(t, &body)
	require.Len(t, body.LoginHistory, 2)
	assert.Equal(t, 3.0, body.Pagination["total"])
	assert.True(t, body.LoginHistory[0].Timestamp.After(body.LoginHistory[1].Timestamp))
	for _, h := range body.LoginHistory {
		assert.Equal(t, user.ID, h.UserID)
	}
}

func TestMyEnrollmentsAndCertificates(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	token := env.Token(user)

	goCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go"})
	sqlCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "SQL"})
	env.Enroll(user, goCourse, courseModels.EnrollmentCompleted)
	env.Enroll(user, sqlCourse, courseModels.EnrollmentInProgress)

	resp := env.Do(http.MethodGet, "/user/enrollments", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var enrollments struct {
		Enrollments []courseModels.Enrollment `json:"enrollments"`
	}
	resp.Decode(t, &enrollments)
	require.Len(t, enrollments.Enrollments, 2)
	for _, e := range enrollments.Enrollments {
		require.NotNil(t, e.Course)
	}

	env.Do(http.MethodGet, "/user/enrollments?status=completed", nil, token).Decode(t, &enrollments)
	require.Len(t, enrollments.Enrollments, 1)
	assert.Equal(t, goCourse.ID, enrollments.Enrollments[0].CourseID)

	require.NoError(t, env.DB.Create(&courseModels.CertificateIssuance{
		UserID:            user.ID,
		CourseID:          goCourse.ID,
		CertificateNumber: "CERT-2026-0000AAAA",
		TokenHash:         "hash-1",
		Status:            courseModels.IssuanceActive,
		IssuedAt:          time.Now(),
	}).Error)
	require.NoError(t, env.DB.Create(&courseModels.CertificateRequest{
		UserID:      user.ID,
		CourseID:    sqlCourse.ID,
		Status:      courseModels.RequestPending,
		RequestedAt: time.Now(),
	}).Error)

	resp = env.Do(http.MethodGet, "/user/certificates", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var certs struct {
		Certificates    []courseModels.CertificateIssuance `json:"certificates"`
		PendingRequests int64                              `json:"pending_requests"`
	}
	resp.Decode(t, &certs)
	require.Len(t, certs.Certificates, 1)
	assert.Equal(t, "CERT-2026-0000AAAA", certs.Certificates[0].CertificateNumber)
	assert.Equal(t, int64(1), certs.PendingRequests)
}

func TestDashboard(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)

	goCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go"})
	sqlCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "SQL"})
	env.Enroll(user, goCourse, courseModels.EnrollmentCompleted)
	env.Enroll(user, sqlCourse, courseModels.EnrollmentInProgress)

	quiz := courseModels.Questionnaire{CourseID: goCourse.ID, Title: "Basics", PassPercent: 50, IsPublished: true}
	require.NoError(t, env.DB.Create(&quiz).Error)
	for i, passed := range []bool{false, true, true} {
		require.NoError(t, env.DB.Create(&courseModels.QuizAttempt{
			UserID:          user.ID,
			CourseID:        goCourse.ID,
			QuestionnaireID: quiz.ID,
			Passed:          passed,
			AttemptNumber:   i + 1,
		}).Error)
	}

	resp := env.Do(http.MethodGet, "/user/dashboard", nil, env.Token(user))
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Stats              map[string]float64          `json:"stats"`
		RecentCourses      []courseModels.Enrollment  `json:"recent_courses"`
		RecentQuizAttempts []courseModels.QuizAttempt `json:"recent_quiz_attempts"`
	}
	resp.Decode(t, &body)

	assert.Equal(t, 2.0, body.Stats["enrolled_courses"])
	assert.Equal(t, 1.0, body.Stats["in_progress_courses"])
	assert.Equal(t, 1.0, body.Stats["completed_courses"])
	assert.Equal(t, 0.0, body.Stats["certificates"])
	assert.Equal(t, 3.0, body.Stats["quiz_attempts"])
	assert.Equal(t, 1.0, body.Stats["passed_quizzes"])

	require.Len(t, body.RecentCourses, 1)
	assert.Equal(t, sqlCourse.ID, body.RecentCourses[0].CourseID)
	require.Len(t, body.RecentQuizAttempts, 3)
	assert.Equal(t, 3, body.RecentQuizAttempts[0].AttemptNumber)
}
