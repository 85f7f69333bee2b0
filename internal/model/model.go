package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// Choice is one of the four answer letters.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Choices lists the answer letters in display order.
var Choices = []Choice{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// ParseChoice normalizes s to a Choice. Lower-case letters are accepted.
func ParseChoice(s string) (Choice, bool) {
	c := Choice(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return c, true
	}
	return "", false
}

// SessionStatus represents the status of a test session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Profession is a skill domain that groups questions.
type Profession struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	NameEN        string    `json:"name_en"`
	NameRU        string    `json:"name_ru"`
	DescriptionEN string    `json:"description_en"`
	DescriptionRU string    `json:"description_ru"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}

// Name returns the profession name in lang, falling back to English.
func (p Profession) Name(lang string) string {
	return pick(lang, p.NameEN, p.NameRU)
}

// Description returns the description in lang, falling back to English.
func (p Profession) Description(lang string) string {
	return pick(lang, p.DescriptionEN, p.DescriptionRU)
}

// ProfessionWithCount is a profession together with the size of its question pool.
type ProfessionWithCount struct {
	Profession
	QuestionsCount int
}

// OptionText holds the two translations of one answer option.
type OptionText struct {
	EN string `json:"en"`
	RU string `json:"ru"`
}

// In returns the text for lang, falling back to English.
func (o OptionText) In(lang string) string {
	return pick(lang, o.EN, o.RU)
}

// Options holds all four answer options of a question.
type Options struct {
	A OptionText `json:"A"`
	B OptionText `json:"B"`
	C OptionText `json:"C"`
	D OptionText `json:"D"`
}

// Get returns the option for c.
func (o Options) Get(c Choice) OptionText {
	switch c {
	case ChoiceA:
		return o.A
	case ChoiceB:
		return o.B
	case ChoiceC:
		return o.C
	case ChoiceD:
		return o.D
	}
	return OptionText{}
}

// Question is a bilingual multiple-choice question.
type Question struct {
	ID            int64      `json:"id"`
	ProfessionID  int64      `json:"profession_id"`
	QuestionEN    string     `json:"question_en"`
	QuestionRU    string     `json:"question_ru"`
	OptionAEN     string     `json:"option_a_en"`
	OptionARU     string     `json:"option_a_ru"`
	OptionBEN     string     `json:"option_b_en"`
	OptionBRU     string     `json:"option_b_ru"`
	OptionCEN     string     `json:"option_c_en"`
	OptionCRU     string     `json:"option_c_ru"`
	OptionDEN     string     `json:"option_d_en"`
	OptionDRU     string     `json:"option_d_ru"`
	CorrectAnswer Choice     `json:"correct_answer"`
	ExplanationEN string     `json:"explanation_en"`
	ExplanationRU string     `json:"explanation_ru"`
	Difficulty    Difficulty `json:"difficulty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Options groups the eight option columns.
func (q Question) Options() Options {
	return Options{
		A: OptionText{EN: q.OptionAEN, RU: q.OptionARU},
		B: OptionText{EN: q.OptionBEN, RU: q.OptionBRU},
		C: OptionText{EN: q.OptionCEN, RU: q.OptionCRU},
		D: OptionText{EN: q.OptionDEN, RU: q.OptionDRU},
	}
}

// Text returns the question text in lang.
func (q Question) Text(lang string) string {
	return pick(lang, q.QuestionEN, q.QuestionRU)
}

// Explanation returns the explanation in lang.
func (q Question) Explanation(lang string) string {
	return pick(lang, q.ExplanationEN, q.ExplanationRU)
}

// TestSession is one attempt at a quiz.
type TestSession struct {
	ID              int64         `json:"id"`
	UserID          *int64        `json:"user_id,omitempty"`
	ProfessionID    int64         `json:"profession_id"`
	Status          SessionStatus `json:"status"`
	QuestionsCount  int           `json:"questions_count"`
	CorrectAnswers  *int          `json:"correct_answers,omitempty"`
	ScorePercentage *float64      `json:"score_percentage,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// SessionWithProfession is a session joined with its profession.
type SessionWithProfession struct {
	Session    TestSession
	Profession Profession
}

// UserAnswer is the answer slot for one question of a session.
type UserAnswer struct {
	ID            int64      `json:"id"`
	TestSessionID int64      `json:"test_session_id"`
	QuestionID    int64      `json:"question_id"`
	UserAnswer    *Choice    `json:"user_answer"`
	IsCorrect     *bool      `json:"is_correct"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

// AnswerDetail is an answer slot joined with its question.
type AnswerDetail struct {
	Answer   UserAnswer
	Question Question
}

// QuizConfig holds runtime quiz parameters set via CLI flags.
type QuizConfig struct {
	BasePath        string // URL prefix for sub-path deployments
	DefaultLang     string // UI language when the request does not pick one
	TimePerQuestion int    // seconds, enforced by the browser only
	CountOptions    []int  // question counts offered on the setup page
}

func pick(lang, en, ru string) string {
	if lang == "ru" && ru != "" {
		return ru
	}
	return en
}

// Validate checks that every text field is populated and that the correct
// answer and difficulty are known values.
func (q Question) Validate() error {
	fields := []struct{ name, value string }{
		{"question_en", q.QuestionEN}, {"question_ru", q.QuestionRU},
		{"option_a_en", q.OptionAEN}, {"option_a_ru", q.OptionARU},
		{"option_b_en", q.OptionBEN}, {"option_b_ru", q.OptionBRU},
		{"option_c_en", q.OptionCEN}, {"option_c_ru", q.OptionCRU},
		{"option_d_en", q.OptionDEN}, {"option_d_ru", q.OptionDRU},
		{"explanation_en", q.ExplanationEN}, {"explanation_ru", q.ExplanationRU},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("question field %s is empty", f.name)
		}
	}
	switch q.CorrectAnswer {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
	default:
		return fmt.Errorf("invalid correct answer %q", q.CorrectAnswer)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %q", q.Difficulty)
	}
	return nil
}
