package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizConfigDecodesPublishedFormat(t *testing.T) {
	raw := `{
		"id": "variable-types",
		"name": "Variable types",
		"emoji": "📊",
		"file": "variable_types.json",
		"answer_type": "multiple_choice_4",
		"options": [
			{"value": "nominal", "label": "Qualitative nominal"},
			"ordinal",
			{"value": "discrete"},
			"continuous"
		]
	}`
	var cfg QuizConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, AnswerFixedFour, cfg.AnswerType)
	require.Len(t, cfg.Options, 4)
	assert.Equal(t, Option{Value: "nominal", Label: "Qualitative nominal"}, cfg.Options[0])
	assert.Equal(t, Option{Value: "ordinal", Label: "ordinal"}, cfg.Options[1])
	assert.Equal(t, Option{Value: "discrete", Label: "discrete"}, cfg.Options[2])
	assert.Equal(t, 4, cfg.OptionCountOr(3))
}

func TestAnswerTypeRejectsUnknown(t *testing.T) {
	var cfg QuizConfig
	err := json.Unmarshal([]byte(`{"id":"x","answer_type":"essay"}`), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestQuestionIDAcceptsNumbersAndStrings(t *testing.T) {
	var records []QuestionRecord
	raw := `[{"id": 7, "question": "a", "correct": "x"}, {"id": "q-8", "question": "b", "correct": "y"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	assert.Equal(t, QuestionID("7"), records[0].ID)
	assert.Equal(t, QuestionID("q-8"), records[1].ID)

	var id QuestionID
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"nested": true}`), &id), ErrInvalidRequest)
}

func TestOptionCountForRandomQuiz(t *testing.T) {
	cfg := QuizConfig{AnswerType: AnswerRandom}
	assert.Equal(t, 3, cfg.OptionCountOr(3))
	cfg.OptionCount = 5
	assert.Equal(t, 5, cfg.OptionCountOr(3))
}

func TestSessionStateCloneDoesNotAlias(t *testing.T) {
	state := SessionState{
		Remaining:      []int{1, 2},
		CurrentOptions: []Option{{Value: "a", Label: "a"}},
		LastResult:     &CheckResult{Correct: true},
	}
	clone := state.Clone()
	clone.Remaining[0] = 9
	clone.CurrentOptions[0].Value = "z"
	clone.LastResult.Correct = false

	assert.Equal(t, 1, state.Remaining[0])
	assert.Equal(t, "a", state.CurrentOptions[0].Value)
	assert.True(t, state.LastResult.Correct)
}
