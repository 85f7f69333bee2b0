package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

const answerColumns = `ua.id, ua.test_session_id, ua.question_id, ua.user_answer, ua.is_correct, ua.answered_at`

func answerDest(a *model.UserAnswer) []any {
	return []any{&a.ID, &a.TestSessionID, &a.QuestionID, &a.UserAnswer, &a.IsCorrect, &a.AnsweredAt}
}

// GetAnswer returns the answer row for a question of a session.
func (s *Store) GetAnswer(ctx context.Context, sessionID, questionID int64) (model.UserAnswer, error) {
	var a model.UserAnswer
	err := s.db.QueryRowContext(ctx,
		`SELECT `+answerColumns+` FROM user_answers ua
		 WHERE ua.test_session_id = ? AND ua.question_id = ?`, sessionID, questionID,
	).Scan(answerDest(&a)...)
	return a, err
}

// ListAnswers returns the answer rows of a session in creation order.
func (s *Store) ListAnswers(ctx context.Context, sessionID int64) ([]model.UserAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+answerColumns+` FROM user_answers ua
		 WHERE ua.test_session_id = ? ORDER BY ua.id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(answerDest(&a)...); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ErrSessionClosed is returned by SaveAnswer when the session is no longer in
// progress.
var ErrSessionClosed = errors.New("session is not in progress")

// SaveAnswer overwrites the answer row for a question of a session. The write
// only happens while the session is in progress; otherwise ErrSessionClosed is
// returned. It returns sql.ErrNoRows when the question is not part of the
// session.
func (s *Store) SaveAnswer(ctx context.Context, sessionID, questionID int64, choice model.Choice, isCorrect bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_answers
		 SET user_answer = ?, is_correct = ?, answered_at = ?
		 WHERE test_session_id = ? AND question_id = ?
		   AND EXISTS (SELECT 1 FROM test_sessions WHERE id = ? AND status = 'in_progress')`,
		choice, isCorrect, time.Now().UTC(), sessionID, questionID, sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var status model.SessionStatus
	err = s.db.QueryRowContext(ctx, `SELECT status FROM test_sessions WHERE id = ?`, sessionID).Scan(&status)
	if err != nil {
		return err
	}
	if status != model.StatusInProgress {
		return ErrSessionClosed
	}
	return sql.ErrNoRows
}

// ListAnswerDetails returns the answer rows of a session joined with their
// questions, in creation order.
func (s *Store) ListAnswerDetails(ctx context.Context, sessionID int64) ([]model.AnswerDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+answerColumns+`, `+questionColumns+`
		 FROM user_answers ua
		 JOIN questions q ON q.id = ua.question_id
		 WHERE ua.test_session_id = ?
		 ORDER BY ua.id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var details []model.AnswerDetail
	for rows.Next() {
		var d model.AnswerDetail
		dest := append(answerDest(&d.Answer), questionDest(&d.Question)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
