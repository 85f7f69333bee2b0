package views

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appI18n "github.com/pavelanni/profquiz/internal/i18n"
	"github.com/pavelanni/profquiz/internal/model"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	require.NoError(t, appI18n.Init("en"))
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func choice(c model.Choice) *model.Choice { return &c }

func TestResultsPage(t *testing.T) {
	opts := model.Options{
		A: model.OptionText{EN: "Salt"},
		B: model.OptionText{EN: "Sugar"},
		C: model.OptionText{EN: "Flour"},
		D: model.OptionText{EN: "Water"},
	}
	res := model.Results{
		SessionID:        3,
		ProfessionName:   "Cook",
		ProfessionSlug:   "cook",
		TotalQuestions:   3,
		CorrectAnswers:   2,
		IncorrectAnswers: 1,
		Percentage:       66.67,
		Questions: []model.ResultItem{
			{ID: 1, QuestionEN: "Is 1 < 2?", UserAnswer: choice(model.ChoiceA), CorrectAnswer: model.ChoiceA, IsCorrect: true, Options: opts, Difficulty: model.DifficultyEasy},
			{ID: 2, QuestionEN: "Second", UserAnswer: choice(model.ChoiceA), CorrectAnswer: model.ChoiceA, IsCorrect: true, Options: opts, Difficulty: model.DifficultyMedium},
			{ID: 3, QuestionEN: "Third", UserAnswer: choice(model.ChoiceC), CorrectAnswer: model.ChoiceB, Options: opts, ExplanationEN: "Sweet", Difficulty: model.DifficultyHard},
		},
	}

	ctx := model.ContextWithBasePath(context.Background(), "/quiz")
	body := render(t, ctx, ResultsPage(res))

	assert.Contains(t, body, `<div class="score" data-level="mid">67%</div>`)
	assert.Contains(t, body, "<strong>2</strong>Correct")
	assert.Contains(t, body, "<strong>1</strong>Incorrect")
	assert.Contains(t, body, "<strong>0</strong>Skipped")
	assert.Contains(t, body, "Is 1 &lt; 2?")
	assert.NotContains(t, body, "Is 1 < 2?")
	assert.Contains(t, body, `<div class="option" data-state="wrong"><span class="letter">C</span> Flour <em class="muted">(Your answer)</em></div>`)
	assert.Contains(t, body, `<div class="option" data-state="correct"><span class="letter">B</span> Sugar <em class="muted">(Correct answer)</em></div>`)
	assert.Contains(t, body, `<p><strong>Explanation:</strong> Sweet</p>`)
	assert.Contains(t, body, `href="/quiz/test/cook"`)
	assert.Contains(t, body, `href="/quiz/static/style.css"`)
}

func TestRunnerPageConfig(t *testing.T) {
	prof := model.ProfessionWithCount{
		Profession:     model.Profession{Slug: "cook", NameEN: "Cook </script>"},
		QuestionsCount: 5,
	}
	ctx := appI18n.WithLang(context.Background(), "ru")
	body := render(t, ctx, RunnerPage(prof, 3, 45))

	assert.Contains(t, body, `<script id="quiz-config" type="application/json">`)
	assert.Contains(t, body, `"lang":"ru"`)
	assert.Contains(t, body, `"timePerQuestion":45`)
	assert.Contains(t, body, `"resultsUrl":"/results/"`)
	assert.Contains(t, body, "<title>Cook &lt;/script&gt;")
}

func TestLangURL(t *testing.T) {
	assert.Equal(t, templ.SafeURL("?lang=ru"), langURL(context.Background(), "ru"))

	u, err := url.Parse("/test/cook?count=3&lang=en")
	require.NoError(t, err)
	ctx := ContextWithRequestURL(context.Background(), u)
	assert.Equal(t, templ.SafeURL("/test/cook?count=3&lang=ru"), langURL(ctx, "ru"))
}

func TestOptionState(t *testing.T) {
	item := model.ResultItem{UserAnswer: choice(model.ChoiceC), CorrectAnswer: model.ChoiceB}
	assert.Equal(t, "correct", optionState(item, model.ChoiceB))
	assert.Equal(t, "wrong", optionState(item, model.ChoiceC))
	assert.Equal(t, "plain", optionState(item, model.ChoiceA))

	skipped := model.ResultItem{CorrectAnswer: model.ChoiceA}
	assert.Equal(t, "correct", optionState(skipped, model.ChoiceA))
	assert.Equal(t, "plain", optionState(skipped, model.ChoiceD))
}
