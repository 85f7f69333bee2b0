package model

import "time"

// ResultsExport is the top-level JSON structure for a results export.
type ResultsExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Sessions   []SessionExport `json:"sessions"`
}

// SessionExport holds one session with its answers.
type SessionExport struct {
	SessionID       int64          `json:"session_id"`
	ProfessionSlug  string         `json:"profession_slug"`
	Status          SessionStatus  `json:"status"`
	QuestionsCount  int            `json:"questions_count"`
	CorrectAnswers  *int           `json:"correct_answers,omitempty"`
	ScorePercentage *float64       `json:"score_percentage,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Answers         []AnswerExport `json:"answers"`
}

// AnswerExport holds per-question data for export.
type AnswerExport struct {
	QuestionID    int64      `json:"question_id"`
	QuestionEN    string     `json:"question_en"`
	Difficulty    Difficulty `json:"difficulty"`
	UserAnswer    *Choice    `json:"user_answer"`
	CorrectAnswer Choice     `json:"correct_answer"`
	IsCorrect     *bool      `json:"is_correct"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}
