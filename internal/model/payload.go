package model

import "time"

// ProfessionSummary is a profession as listed by the API.
type ProfessionSummary struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	NameEN         string    `json:"name_en"`
	NameRU         string    `json:"name_ru"`
	DescriptionEN  string    `json:"description_en"`
	DescriptionRU  string    `json:"description_ru"`
	Icon           string    `json:"icon"`
	CreatedAt      time.Time `json:"created_at"`
	QuestionsCount int       `json:"questions_count"`
}

// QuestionView is a question as sent to the quiz runner. It never carries
// the correct answer or the explanation.
type QuestionView struct {
	ID         int64      `json:"id"`
	Order      int        `json:"order"`
	QuestionEN string     `json:"question_en"`
	QuestionRU string     `json:"question_ru"`
	Options    Options    `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
}

// StartResult is returned when a session starts.
type StartResult struct {
	SessionID      int64          `json:"sessionId"`
	ProfessionID   int64          `json:"professionId"`
	QuestionsCount int            `json:"questionsCount"`
	Questions      []QuestionView `json:"questions"`
}

// AnswerResult is returned after an answer is recorded.
type AnswerResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer Choice `json:"correctAnswer"`
}

// ResultItem is one reviewed question.
type ResultItem struct {
	ID            int64      `json:"id"`
	QuestionEN    string     `json:"question_en"`
	QuestionRU    string     `json:"question_ru"`
	UserAnswer    *Choice    `json:"user_answer"`
	CorrectAnswer Choice     `json:"correct_answer"`
	IsCorrect     bool       `json:"is_correct"`
	Options       Options    `json:"options"`
	ExplanationEN string     `json:"explanation_en"`
	ExplanationRU string     `json:"explanation_ru"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Skipped reports whether the question was left unanswered.
func (r ResultItem) Skipped() bool {
	return r.UserAnswer == nil
}

// Results is the scored outcome of a session.
type Results struct {
	SessionID        int64         `json:"sessionId"`
	Status           SessionStatus `json:"status"`
	ProfessionName   string        `json:"professionName"`
	ProfessionNameRU string        `json:"professionNameRu"`
	ProfessionSlug   string        `json:"professionSlug"`
	TotalQuestions   int           `json:"totalQuestions"`
	CorrectAnswers   int           `json:"correctAnswers"`
	IncorrectAnswers int           `json:"incorrectAnswers"`
	SkippedAnswers   int           `json:"skippedAnswers"`
	Percentage       float64       `json:"percentage"`
	Questions        []ResultItem  `json:"questions"`
}

// ProfessionNameIn returns the profession display name in lang.
func (r Results) ProfessionNameIn(lang string) string {
	return pick(lang, r.ProfessionName, r.ProfessionNameRU)
}

// Name returns the profession name in lang, falling back to English.
func (p ProfessionSummary) Name(lang string) string {
	return pick(lang, p.NameEN, p.NameRU)
}

// Description returns the description in lang, falling back to English.
func (p ProfessionSummary) Description(lang string) string {
	return pick(lang, p.DescriptionEN, p.DescriptionRU)
}

// Text returns the question text in lang.
func (r ResultItem) Text(lang string) string {
	return pick(lang, r.QuestionEN, r.QuestionRU)
}

// Explanation returns the explanation in lang.
func (r ResultItem) Explanation(lang string) string {
	return pick(lang, r.ExplanationEN, r.ExplanationRU)
}
