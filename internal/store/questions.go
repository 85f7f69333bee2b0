package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

const questionColumns = `q.id, q.profession_id, q.question_en, q.question_ru,
	q.option_a_en, q.option_a_ru, q.option_b_en, q.option_b_ru,
	q.option_c_en, q.option_c_ru, q.option_d_en, q.option_d_ru,
	q.correct_answer, q.explanation_en, q.explanation_ru, q.difficulty, q.created_at`

func questionDest(q *model.Question) []any {
	return []any{
		&q.ID, &q.ProfessionID, &q.QuestionEN, &q.QuestionRU,
		&q.OptionAEN, &q.OptionARU, &q.OptionBEN, &q.OptionBRU,
		&q.OptionCEN, &q.OptionCRU, &q.OptionDEN, &q.OptionDRU,
		&q.CorrectAnswer, &q.ExplanationEN, &q.ExplanationRU, &q.Difficulty, &q.CreatedAt,
	}
}

func scanQuestions(rows *sql.Rows) ([]model.Question, error) {
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(questionDest(&q)...); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertQuestion validates and stores a question.
func (s *Store) InsertQuestion(ctx context.Context, q model.Question) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return insertQuestion(ctx, s.db, q)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertQuestion(ctx context.Context, ex execer, q model.Question) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO questions (
			profession_id, question_en, question_ru,
			option_a_en, option_a_ru, option_b_en, option_b_ru,
			option_c_en, option_c_ru, option_d_en, option_d_ru,
			correct_answer, explanation_en, explanation_ru, difficulty, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ProfessionID, q.QuestionEN, q.QuestionRU,
		q.OptionAEN, q.OptionARU, q.OptionBEN, q.OptionBRU,
		q.OptionCEN, q.OptionCRU, q.OptionDEN, q.OptionDRU,
		q.CorrectAnswer, q.ExplanationEN, q.ExplanationRU, q.Difficulty, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	var q model.Question
	err := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.id = ?`, id,
	).Scan(questionDest(&q)...)
	return q, err
}

// ListQuestionsByProfession returns a profession's questions in insertion order.
func (s *Store) ListQuestionsByProfession(ctx context.Context, professionID int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.profession_id = ? ORDER BY q.id`, professionID)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "questions")
}

// CountQuestionsByProfession returns the size of a profession's question pool.
func (s *Store) CountQuestionsByProfession(ctx context.Context, professionID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE profession_id = ?`, professionID,
	).Scan(&n)
	return n, err
}
