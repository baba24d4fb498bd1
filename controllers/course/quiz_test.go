package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	controllers "lms/controllers/course"
	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGradeQuiz(t *testing.T) {
	questions := []courseModels.Question{
		{Model: gorm.Model{ID: 1}, QuestionType: courseModels.QuestionSingle, CorrectOptions: []int{2}, Points: 1},
		{Model: gorm.Model{ID: 2}, QuestionType: courseModels.QuestionMultiple, CorrectOptions: []int{0, 3}, Points: 3},
		{Model: gorm.Model{ID: 3}, QuestionType: courseModels.QuestionSingle, CorrectOptions: []int{1}, Points: 2},
	}

	tests := []struct {
		name      string
		answers   map[string][]int
		wantScore int
	}{
		{name: "all correct", answers: map[string][]int{"1": {2}, "2": {3, 0}, "3": {1}}, wantScore: 6},
		{name: "duplicates are ignored", answers: map[string][]int{"1": {2, 2}, "2": {0, 3, 0}}, wantScore: 4},
		{name: "subset is wrong", answers: map[string][]int{"2": {0}}, wantScore: 0},
		{name: "superset is wrong", answers: map[string][]int{"2": {0, 1, 3}}, wantScore: 0},
		{name: "unanswered", answers: map[string][]int{}, wantScore: 0},
		{name: "unknown question ids ignored", answers: map[string][]int{"99": {0}, "3": {1}}, wantScore: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, maxScore, results := controllers.GradeQuiz(questions, tt.answers)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, 6, maxScore)
			assert.Len(t, results, 3)
		})
	}
}

type quizFixture struct {
	env             *testutil.Env
	course          courseModels.Course
	admin           string
	student         string
	questionnaireID uint
	questionIDs     []uint
}

// newQuizFixture builds a course with a published two-question quiz through
// the admin API.
func newQuizFixture(t *testing.T, maxAttempts int) *quizFixture {
	env := testutil.Setup(t)
	course, _ := env.SeedCourse(testutil.CourseOptions{})
	f := &quizFixture{
		env:     env,
		course:  course,
		admin:   env.Token(env.CreateUser("Admin", "admin@example.com", models.RoleAdmin)),
		student: env.Token(env.CreateUser("Student", "student@example.com", models.RoleUser)),
	}
	var student models.User
	require.NoError(t, env.DB.Where("email = ?", "student@example.com").First(&student).Error)
	env.Enroll(student, course, courseModels.EnrollmentEnrolled)

	resp := env.Do(http.MethodPost, fmt.Sprintf("/admin/course/%d/questionnaire", course.ID), map[string]interface{}{
		"title":        "Checkpoint",
		"pass_percent": 60,
		"max_attempts": maxAttempts,
		"is_published": true,
	}, f.admin)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var q courseModels.Questionnaire
	resp.Decode(t, &q)
	f.questionnaireID = q.ID

	for _, body := range []map[string]interface{}{
		{"text": "2 + 2?", "question_type": "SINGLE", "options": []string{"3", "4", "5"}, "correct_options": []int{1}, "points": 2},
		{"text": "Primes?", "question_type": "MULTIPLE", "options": []string{"2", "4", "5", "9"}, "correct_options": []int{0, 2}, "points": 3},
	} {
		resp := env.Do(http.MethodPost, fmt.Sprintf("/admin/questionnaire/%d/question", q.ID), body, f.admin)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
		f.questionIDs = append(f.questionIDs, uint(resp.Map(t)["ID"].(float64)))
	}
	return f
}

func (f *quizFixture) submit(answers map[string][]int) testutil.Response {
	return f.env.Do(http.MethodPost, fmt.Sprintf("/quiz/%d/submit", f.questionnaireID),
		map[string]interface{}{"answers": answers}, f.student)
}

func TestAdminQuestionValidation(t *testing.T) {
	f := newQuizFixture(t, 0)
	path := fmt.Sprintf("/admin/questionnaire/%d/question", f.questionnaireID)

	resp := f.env.Do(http.MethodPost, path, map[string]interface{}{
		"text": "Pick one", "question_type": "SINGLE", "options": []string{"a", "b"}, "correct_options": []int{0, 1},
	}, f.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = f.env.Do(http.MethodPost, path, map[string]interface{}{
		"text": "Pick", "question_type": "MULTIPLE", "options": []string{"a", "b"}, "correct_options": []int{2},
	}, f.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = f.env.Do(http.MethodPost, path, map[string]interface{}{
		"text": "Pick", "question_type": "SINGLE", "options": []string{"only"}, "correct_options": []int{0},
	}, f.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = f.env.Do(http.MethodPost, path, map[string]interface{}{
		"text": "Pick", "question_type": "SINGLE", "options": []string{"a", "b"}, "correct_options": []int{0},
	}, f.student)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	admin := f.env.Do(http.MethodGet, fmt.Sprintf("/admin/questionnaire/%d", f.questionnaireID), nil, f.admin)
	require.Equal(t, http.StatusOK, admin.Code)
	assert.Contains(t, string(admin.Data), "correct_options")
}

func TestGetQuizHidesAnswers(t *testing.T) {
	f := newQuizFixture(t, 2)

	resp := f.env.Do(http.MethodGet, fmt.Sprintf("/quiz/%d", f.questionnaireID), nil, f.student)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	assert.NotContains(t, string(resp.Data), "correct_options")

	data := resp.Map(t)
	assert.EqualValues(t, 0, data["attempts_used"])
	assert.EqualValues(t, 2, data["attempts_remaining"])
	assert.Equal(t, false, data["passed"])
}

func TestSubmitQuiz(t *testing.T) {
	f := newQuizFixture(t, 2)
	q1, q2 := fmt.Sprint(f.questionIDs[0]), fmt.Sprint(f.questionIDs[1])

	resp := f.submit(map[string][]int{q1: {1}, q2: {0}})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var first struct {
		Attempt courseModels.QuizAttempt     `json:"attempt"`
		Results []controllers.QuestionResult `json:"results"`
	}
	resp.Decode(t, &first)
	assert.Equal(t, 2, first.Attempt.Score)
	assert.Equal(t, 5, first.Attempt.MaxScore)
	assert.InDelta(t, 40.0, first.Attempt.Percent, 0.001)
	assert.False(t, first.Attempt.Passed)
	assert.Equal(t, 1, first.Attempt.AttemptNumber)

	resp = f.submit(map[string][]int{q1: {1}, q2: {2, 0}})
	require.Equal(t, http.StatusCreated, resp.Code)
	var second struct {
		Attempt courseModels.QuizAttempt `json:"attempt"`
	}
	resp.Decode(t, &second)
	assert.True(t, second.Attempt.Passed)
	assert.InDelta(t, 100.0, second.Attempt.Percent, 0.001)
	assert.Equal(t, 2, second.Attempt.AttemptNumber)

	resp = f.submit(map[string][]int{q1: {1}})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "Maximum number of attempts reached!", resp.Message)

	attempts := f.env.Do(http.MethodGet, fmt.Sprintf("/quiz/%d/attempts", f.questionnaireID), nil, f.student)
	require.Equal(t, http.StatusOK, attempts.Code)
	assert.Contains(t, f.env.Events.Types(), utils.EventQuizSubmitted)
}

func TestSubmitQuizRequiresEnrollment(t *testing.T) {
	f := newQuizFixture(t, 0)
	outsider := f.env.Token(f.env.CreateUser("Outsider", "out@example.com", models.RoleUser))

	resp := f.env.Do(http.MethodPost, fmt.Sprintf("/quiz/%d/submit", f.questionnaireID),
		map[string]interface{}{"answers": map[string][]int{}}, outsider)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
