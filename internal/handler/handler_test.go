package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appI18n "github.com/pavelanni/profquiz/internal/i18n"
	"github.com/pavelanni/profquiz/internal/model"
	"github.com/pavelanni/profquiz/internal/quiz"
	"github.com/pavelanni/profquiz/internal/store"
)

func newTestRouter(t *testing.T, basePath string) http.Handler {
	t.Helper()
	require.NoError(t, appI18n.Init("en"))

	s, err := store.New(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())

	seed := model.SeedFile{Professions: []model.ProfessionImport{{
		Slug:          "cook",
		NameEN:        "Cook",
		NameRU:        "Повар",
		DescriptionEN: "Kitchen work",
		DescriptionRU: "Работа на кухне",
		Icon:          "🍳",
	}}}
	for i := 0; i < 5; i++ {
		seed.Professions[0].Questions = append(seed.Professions[0].Questions, model.QuestionImport{
			QuestionEN:    fmt.Sprintf("Question %d", i),
			QuestionRU:    fmt.Sprintf("Вопрос %d", i),
			OptionAEN:     "Salt",
			OptionARU:     "Соль",
			OptionBEN:     "Sugar",
			OptionBRU:     "Сахар",
			OptionCEN:     "Flour",
			OptionCRU:     "Мука",
			OptionDEN:     "Water",
			OptionDRU:     "Вода",
			CorrectAnswer: model.ChoiceA,
			ExplanationEN: "Always salt",
			ExplanationRU: "Всегда соль",
			Difficulty:    model.DifficultyMedium,
		})
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	svc := quiz.NewService(s)
	_, err = svc.ImportFile(context.Background(), path, false)
	require.NoError(t, err)

	return New(svc, model.QuizConfig{
		BasePath:     basePath,
		CountOptions: []int{10, 3, 2},
	}).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, h http.Handler, count int) model.StartResult {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/test/start",
		fmt.Sprintf(`{"professionSlug":"cook","questionsCount":%d}`, count))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res model.StartResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestAPIListProfessions(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/api/professions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var list []model.ProfessionSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "cook", list[0].Slug)
	assert.Equal(t, "Повар", list[0].NameRU)
	assert.Equal(t, 5, list[0].QuestionsCount)
}

func TestAPIStartTest(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/test/start", `{"professionSlug":"cook","questionsCount":"3"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "correct_answer")
	assert.NotContains(t, rec.Body.String(), "Always salt")

	var res model.StartResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Positive(t, res.SessionID)
	assert.Equal(t, 3, res.QuestionsCount)
	require.Len(t, res.Questions, 3)
	for i, q := range res.Questions {
		assert.Equal(t, i+1, q.Order)
		assert.Equal(t, "Salt", q.Options.A.EN)
	}
}

func TestAPIStartTestErrors(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing slug", `{"questionsCount":3}`, http.StatusBadRequest},
		{"missing count", `{"professionSlug":"cook"}`, http.StatusBadRequest},
		{"negative count", `{"professionSlug":"cook","questionsCount":-1}`, http.StatusBadRequest},
		{"count too large", `{"professionSlug":"cook","questionsCount":99}`, http.StatusBadRequest},
		{"bad count string", `{"professionSlug":"cook","questionsCount":"x"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
		{"unknown profession", `{"professionSlug":"pilot","questionsCount":3}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/test/start", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			var e errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestAPIAnswerAndResults(t *testing.T) {
	h := newTestRouter(t, "")
	sess := startSession(t, h, 3)
	q0, q1 := sess.Questions[0].ID, sess.Questions[1].ID

	// Identifiers may arrive as strings; letters may be lower case.
	rec := do(t, h, http.MethodPost, "/api/test/answer",
		fmt.Sprintf(`{"sessionId":"%d","questionId":"%d","answer":"a"}`, sess.SessionID, q0))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ans model.AnswerResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ans))
	assert.True(t, ans.IsCorrect)
	assert.Equal(t, model.ChoiceA, ans.CorrectAnswer)

	rec = do(t, h, http.MethodPost, "/api/test/answer",
		fmt.Sprintf(`{"sessionId":%d,"questionId":%d,"answer":"B"}`, sess.SessionID, q1))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ans))
	assert.False(t, ans.IsCorrect)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/test/results/%d", sess.SessionID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res model.Results
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, model.StatusCompleted, res.Status)
	assert.Equal(t, "Cook", res.ProfessionName)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 1, res.CorrectAnswers)
	assert.Equal(t, 1, res.IncorrectAnswers)
	assert.Equal(t, 1, res.SkippedAnswers)
	assert.InDelta(t, 33.33, res.Percentage, 0.001)
	require.Len(t, res.Questions, 3)
	assert.Nil(t, res.Questions[2].UserAnswer)

	// The session is closed once results were read.
	rec = do(t, h, http.MethodPost, "/api/test/answer",
		fmt.Sprintf(`{"sessionId":%d,"questionId":%d,"answer":"A"}`, sess.SessionID, q1))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPIAnswerErrors(t *testing.T) {
	h := newTestRouter(t, "")
	sess := startSession(t, h, 2)
	qid := sess.Questions[0].ID

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing session", fmt.Sprintf(`{"questionId":%d,"answer":"A"}`, qid), http.StatusBadRequest},
		{"missing answer", fmt.Sprintf(`{"sessionId":%d,"questionId":%d}`, sess.SessionID, qid), http.StatusBadRequest},
		{"bad letter", fmt.Sprintf(`{"sessionId":%d,"questionId":%d,"answer":"E"}`, sess.SessionID, qid), http.StatusBadRequest},
		{"unknown session", fmt.Sprintf(`{"sessionId":9999,"questionId":%d,"answer":"A"}`, qid), http.StatusNotFound},
		{"unknown question", fmt.Sprintf(`{"sessionId":%d,"questionId":9999,"answer":"A"}`, sess.SessionID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/test/answer", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAPIResultsErrors(t *testing.T) {
	h := newTestRouter(t, "")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/test/results/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/test/results/9999", "").Code)
}

func TestPages(t *testing.T) {
	h := newTestRouter(t, "")

	t.Run("home", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		body := rec.Body.String()
		assert.Contains(t, body, "Test your professional skills")
		assert.Contains(t, body, `href="/test/cook"`)
		assert.Contains(t, body, "5 questions")
		assert.Contains(t, body, "<strong>1</strong>Professions")
		assert.Contains(t, body, "<strong>5</strong>Questions")
		assert.Contains(t, body, `<link rel="stylesheet" href="/static/style.css">`)
		assert.Contains(t, body, `<a href="/?lang=en" aria-current="true">EN</a>`)
	})

	t.Run("static assets", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/static/style.css", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
		assert.Contains(t, rec.Body.String(), "nav.lang a[aria-current]")

		rec = do(t, h, http.MethodGet, "/static/runner.js", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "quiz-config")
	})

	t.Run("setup offers counts that fit", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/test/cook", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "/test/cook/start?count=2")
		assert.Contains(t, body, "/test/cook/start?count=3")
		assert.NotContains(t, body, "/test/cook/start?count=10")
	})

	t.Run("setup unknown profession", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/test/pilot", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")
	})

	t.Run("runner", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/test/cook/start?count=3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `id="quiz-config"`)
		assert.Contains(t, body, `"slug":"cook"`)
		assert.Contains(t, body, `"count":3`)
		assert.Contains(t, body, `"api":"/api"`)
		assert.Contains(t, body, `<script id="quiz-config" type="application/json">`)
		assert.Contains(t, body, `<script src="/static/runner.js"></script>`)
	})

	t.Run("runner without count redirects", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/test/cook/start", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/test/cook", rec.Header().Get("Location"))
	})

	t.Run("results", func(t *testing.T) {
		sess := startSession(t, h, 2)
		rec := do(t, h, http.MethodGet, fmt.Sprintf("/results/%d", sess.SessionID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Test Results")
		assert.Contains(t, body, `<div class="score" data-level="low">0%</div>`)
		assert.Contains(t, body, "Always salt")
	})

	t.Run("results unknown session", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/results/9999", "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/results/x", "").Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")
	})
}

func TestLanguageSwitch(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/?lang=ru", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Повар")
	assert.Contains(t, body, `<html lang="ru">`)
	assert.Contains(t, body, `<a href="/?lang=ru" aria-current="true">RU</a>`)
	assert.Contains(t, body, `<a href="/?lang=en">EN</a>`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, appI18n.CookieName, cookies[0].Name)
	assert.Equal(t, "ru", cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/test/cook", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "Работа на кухне")
	assert.Empty(t, rec.Result().Cookies())
}

func TestBasePath(t *testing.T) {
	h := newTestRouter(t, "/quiz")

	rec := do(t, h, http.MethodGet, "/quiz", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/quiz/", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/quiz/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/quiz/test/cook"`)
	assert.Contains(t, rec.Body.String(), `href="/quiz/static/style.css"`)

	rec = do(t, h, http.MethodGet, "/quiz/static/runner.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/quiz/api/professions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/quiz/test/cook/start?count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api":"/quiz/api"`)

	rec = do(t, h, http.MethodGet, "/quiz/test/cook/start", "")
	assert.Equal(t, "/quiz/test/cook", rec.Header().Get("Location"))
}

func TestCountChoices(t *testing.T) {
	tests := []struct {
		name      string
		options   []int
		available int
		want      []int
	}{
		{"all fit", []int{10, 20, 30}, 50, []int{10, 20, 30}},
		{"some fit", []int{30, 10, 20}, 25, []int{10, 20}},
		{"pool smaller than all", []int{10, 20}, 4, []int{4}},
		{"empty pool", []int{10}, 0, nil},
		{"ignores non-positive", []int{0, -5, 5}, 10, []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countChoices(tt.options, tt.available))
		})
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in      string
		want    flexInt
		wantErr bool
	}{
		{`7`, 7, false},
		{`"12"`, 12, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"x"`, 0, true},
		{`1.5`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f flexInt
			err := json.Unmarshal([]byte(tt.in), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}
