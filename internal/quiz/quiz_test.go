package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/profquiz/internal/model"
	"github.com/pavelanni/profquiz/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return NewService(s)
}

func seedQuestion(i int, correct model.Choice) model.QuestionImport {
	return model.QuestionImport{
		QuestionEN:    fmt.Sprintf("Question %d", i),
		QuestionRU:    fmt.Sprintf("Вопрос %d", i),
		OptionAEN:     "Alpha",
		OptionARU:     "Альфа",
		OptionBEN:     "Bravo",
		OptionBRU:     "Браво",
		OptionCEN:     "Charlie",
		OptionCRU:     "Чарли",
		OptionDEN:     "Delta",
		OptionDRU:     "Дельта",
		CorrectAnswer: correct,
		ExplanationEN: "Explained",
		ExplanationRU: "Объяснено",
		Difficulty:    model.DifficultyEasy,
	}
}

func professionImport(slug string, n int) model.ProfessionImport {
	pi := model.ProfessionImport{
		Slug:          slug,
		NameEN:        "Prof " + slug,
		NameRU:        "Проф " + slug,
		DescriptionEN: "Desc",
		DescriptionRU: "Опис",
		Icon:          "🛠",
	}
	for i := 0; i < n; i++ {
		pi.Questions = append(pi.Questions, seedQuestion(i, model.ChoiceA))
	}
	return pi
}

func saveSeed(t *testing.T, path string, seed model.SeedFile) {
	t.Helper()
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeSeed writes a seed file with one profession per slug and n questions
// each, all with correct answer A.
func writeSeed(t *testing.T, dir string, n int, slugs ...string) string {
	t.Helper()
	var seed model.SeedFile
	for _, slug := range slugs {
		seed.Professions = append(seed.Professions, professionImport(slug, n))
	}
	path := filepath.Join(dir, "seed.json")
	saveSeed(t, path, seed)
	return path
}

func seededService(t *testing.T, n int, slugs ...string) *Service {
	t.Helper()
	svc := newTestService(t)
	_, err := svc.ImportFile(context.Background(), writeSeed(t, t.TempDir(), n, slugs...), false)
	require.NoError(t, err)
	return svc
}

func TestListProfessions(t *testing.T) {
	svc := seededService(t, 4, "devops", "qa")

	list, err := svc.ListProfessions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "devops", list[0].Slug)
	assert.Equal(t, "Prof devops", list[0].NameEN)
	assert.Equal(t, "Проф qa", list[1].NameRU)
	assert.Equal(t, 4, list[0].QuestionsCount)
	assert.NotZero(t, list[0].ID)
	assert.False(t, list[0].CreatedAt.IsZero())

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Professions: 2, Questions: 8}, st)
}

func TestGetProfessionNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetProfession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartSession(t *testing.T) {
	svc := seededService(t, 5, "devops")
	ctx := context.Background()

	res, err := svc.StartSession(ctx, "devops", 3)
	require.NoError(t, err)
	assert.NotZero(t, res.SessionID)
	assert.Equal(t, 3, res.QuestionsCount)
	require.Len(t, res.Questions, 3)

	seen := map[int64]bool{}
	for i, q := range res.Questions {
		assert.Equal(t, i+1, q.Order)
		assert.False(t, seen[q.ID], "question drawn twice")
		seen[q.ID] = true
		assert.NotEmpty(t, q.Options.C.RU)
	}

	// The whole pool may be drawn.
	_, err = svc.StartSession(ctx, "devops", 5)
	assert.NoError(t, err)
}

func TestStartSessionErrors(t *testing.T) {
	svc := seededService(t, 2, "devops")

	tests := []struct {
		name  string
		slug  string
		count int
		want  error
	}{
		{"empty slug", "", 1, ErrBadRequest},
		{"zero count", "devops", 0, ErrBadRequest},
		{"negative count", "devops", -1, ErrBadRequest},
		{"unknown profession", "chef", 1, ErrNotFound},
		{"more than available", "devops", 3, ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartSession(context.Background(), tt.slug, tt.count)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecordAnswer(t *testing.T) {
	svc := seededService(t, 3, "devops")
	ctx := context.Background()
	start, err := svc.StartSession(ctx, "devops", 2)
	require.NoError(t, err)
	qid := start.Questions[0].ID

	res, err := svc.RecordAnswer(ctx, start.SessionID, qid, "B")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, model.ChoiceA, res.CorrectAnswer)

	// Last write wins.
	res, err = svc.RecordAnswer(ctx, start.SessionID, qid, "a")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)

	results, err := svc.GetResults(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, results.CorrectAnswers)
	assert.Equal(t, 0, results.IncorrectAnswers)
	assert.Equal(t, 1, results.SkippedAnswers)
}

func TestRecordAnswerErrors(t *testing.T) {
	svc := seededService(t, 3, "devops")
	ctx := context.Background()
	start, err := svc.StartSession(ctx, "devops", 1)
	require.NoError(t, err)
	drawn := start.Questions[0].ID

	var notDrawn int64
	for _, id := range []int64{1, 2, 3} {
		if id != drawn {
			notDrawn = id
			break
		}
	}

	tests := []struct {
		name       string
		sessionID  int64
		questionID int64
		answer     string
		want       error
	}{
		{"missing session", 0, drawn, "A", ErrBadRequest},
		{"missing question", start.SessionID, 0, "A", ErrBadRequest},
		{"missing answer", start.SessionID, drawn, "", ErrBadRequest},
		{"invalid letter", start.SessionID, drawn, "E", ErrBadRequest},
		{"unknown question", start.SessionID, 999, "A", ErrNotFound},
		{"unknown session", 999, drawn, "A", ErrNotFound},
		{"question not in session", start.SessionID, notDrawn, "A", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordAnswer(ctx, tt.sessionID, tt.questionID, tt.answer)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = svc.GetResults(ctx, start.SessionID)
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, start.SessionID, drawn, "A")
	assert.ErrorIs(t, err, ErrSessionCompleted)

	a, err := svc.store.GetAnswer(ctx, start.SessionID, drawn)
	require.NoError(t, err)
	assert.Nil(t, a.UserAnswer, "a completed session keeps its answers")
}

func TestGetResults(t *testing.T) {
	svc := seededService(t, 4, "devops")
	ctx := context.Background()
	start, err := svc.StartSession(ctx, "devops", 4)
	require.NoError(t, err)

	answers := []string{"A", "C", "A"}
	for i, a := range answers {
		_, err := svc.RecordAnswer(ctx, start.SessionID, start.Questions[i].ID, a)
		require.NoError(t, err)
	}

	res, err := svc.GetResults(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	assert.Equal(t, "devops", res.ProfessionSlug)
	assert.Equal(t, "Prof devops", res.ProfessionName)
	assert.Equal(t, "Проф devops", res.ProfessionNameIn("ru"))
	assert.Equal(t, 4, res.TotalQuestions)
	assert.Equal(t, 2, res.CorrectAnswers)
	assert.Equal(t, 1, res.IncorrectAnswers)
	assert.Equal(t, 1, res.SkippedAnswers)
	assert.Equal(t, 50.0, res.Percentage)
	assert.Equal(t, res.TotalQuestions, res.CorrectAnswers+res.IncorrectAnswers+res.SkippedAnswers)

	require.Len(t, res.Questions, 4)
	for i, item := range res.Questions {
		assert.Equal(t, start.Questions[i].ID, item.ID, "review order follows draw order")
	}
	assert.True(t, res.Questions[0].IsCorrect)
	assert.False(t, res.Questions[1].IsCorrect)
	require.NotNil(t, res.Questions[1].UserAnswer)
	assert.Equal(t, model.ChoiceC, *res.Questions[1].UserAnswer)
	assert.True(t, res.Questions[3].Skipped())
	assert.False(t, res.Questions[3].IsCorrect)
	assert.Equal(t, "Explained", res.Questions[0].ExplanationEN)

	sess, err := svc.store.GetSession(ctx, start.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess.CompletedAt)
	require.NotNil(t, sess.ScorePercentage)
	assert.Equal(t, 50.0, *sess.ScorePercentage)

	// Repeat calls keep the completion time and the score.
	again, err := svc.GetResults(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.Percentage, again.Percentage)
	sess2, err := svc.store.GetSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.CompletedAt.Equal(*sess2.CompletedAt))
}

func TestGetResultsScore(t *testing.T) {
	tests := []struct {
		name                        string
		answers                     []string
		correct, incorrect, skipped int
		want                        float64
	}{
		{"two of three", []string{"A", "A", "B"}, 2, 1, 0, 66.67},
		{"all correct", []string{"A", "A", "A"}, 3, 0, 0, 100},
		{"one of three answered", []string{"A"}, 1, 0, 2, 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := seededService(t, 3, "devops")
			ctx := context.Background()
			start, err := svc.StartSession(ctx, "devops", 3)
			require.NoError(t, err)
			for i, a := range tt.answers {
				_, err := svc.RecordAnswer(ctx, start.SessionID, start.Questions[i].ID, a)
				require.NoError(t, err)
			}

			res, err := svc.GetResults(ctx, start.SessionID)
			require.NoError(t, err)
			assert.Equal(t, 3, res.TotalQuestions)
			assert.Equal(t, tt.correct, res.CorrectAnswers)
			assert.Equal(t, tt.incorrect, res.IncorrectAnswers)
			assert.Equal(t, tt.skipped, res.SkippedAnswers)
			assert.Equal(t, tt.want, res.Percentage)

			sess, err := svc.store.GetSession(ctx, start.SessionID)
			require.NoError(t, err)
			require.NotNil(t, sess.CorrectAnswers)
			assert.Equal(t, tt.correct, *sess.CorrectAnswers)
			require.NotNil(t, sess.ScorePercentage)
			assert.Equal(t, tt.want, *sess.ScorePercentage)
		})
	}
}

func TestGetResultsAllSkipped(t *testing.T) {
	svc := seededService(t, 2, "devops")
	ctx := context.Background()
	start, err := svc.StartSession(ctx, "devops", 2)
	require.NoError(t, err)

	res, err := svc.GetResults(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Percentage)
	assert.Equal(t, 2, res.SkippedAnswers)
}

func TestGetResultsNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetResults(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetResults(context.Background(), 0)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
	}
	for _, tt := range tests {
		got := Percentage(tt.correct, tt.total)
		assert.Equal(t, tt.want, got, "Percentage(%d, %d)", tt.correct, tt.total)
	}
}
