package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/profquiz/internal/model"
)

func TestSanitizeForExcel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeForExcel(tt.in), tt.in)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/", ""},
		{"quiz", "/quiz"},
		{"/quiz/", "/quiz"},
		{" /a/b ", "/a/b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBasePath(tt.in), tt.in)
	}
}

func exportFixture() []model.SessionExport {
	correct := 1
	score := 50.0
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(5 * time.Minute)
	b := model.ChoiceB
	yes := true
	return []model.SessionExport{{
		SessionID:       7,
		ProfessionSlug:  "cook",
		Status:          model.StatusCompleted,
		QuestionsCount:  2,
		CorrectAnswers:  &correct,
		ScorePercentage: &score,
		StartedAt:       started,
		CompletedAt:     &completed,
		Answers: []model.AnswerExport{
			{QuestionID: 1, QuestionEN: "=1+1", Difficulty: model.DifficultyEasy, UserAnswer: &b, CorrectAnswer: model.ChoiceB, IsCorrect: &yes, AnsweredAt: &completed},
			{QuestionID: 2, QuestionEN: "Skipped one", Difficulty: model.DifficultyHard, CorrectAnswer: model.ChoiceA},
		},
	}}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeXLSX(&buf, exportFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sessionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Session", rows[0][0])
	assert.Equal(t, []string{"7", "cook", "completed", "2", "1", "50.00", "2026-03-01T10:00:00Z", "2026-03-01T10:05:00Z"}, rows[1])

	rows, err = f.GetRows(answersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "'=1+1", rows[1][2])
	assert.Equal(t, "correct", rows[1][6])
	assert.Equal(t, "skipped", rows[2][6])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	export := model.ResultsExport{ExportedAt: time.Now().UTC(), Sessions: exportFixture()}
	require.NoError(t, writeJSON(&buf, export))

	var got model.ResultsExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, "cook", got.Sessions[0].ProfessionSlug)
	assert.Len(t, got.Sessions[0].Answers, 2)
	assert.Nil(t, got.Sessions[0].Answers[1].UserAnswer)
}
