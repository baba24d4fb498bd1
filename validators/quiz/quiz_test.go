package quizValidator

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswerKey(t *testing.T) {
	options := []string{"a", "b", "c"}

	tests := []struct {
		name         string
		questionType string
		correct      []int
		wantErr      string
	}{
		{"single ok", courseModels.QuestionSingle, []int{1}, ""},
		{"multiple ok", courseModels.QuestionMultiple, []int{0, 2}, ""},
		{"out of range", courseModels.QuestionMultiple, []int{0, 3}, "Option index 3 is out of range!"},
		{"negative", courseModels.QuestionSingle, []int{-1}, "Option index -1 is out of range!"},
		{"repeated", courseModels.QuestionMultiple, []int{1, 1}, "Option index 1 is repeated!"},
		{"single with two", courseModels.QuestionSingle, []int{0, 1}, "SINGLE questions need exactly one correct option!"},
		{"empty", courseModels.QuestionMultiple, nil, "At least one correct option is required!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckAnswerKey(tt.questionType, options, tt.correct)
			if tt.wantErr == "" {
				assert.Nil(t, errs)
				return
			}
			assert.Equal(t, tt.wantErr, errs["correct_options"])
		})
	}
}
