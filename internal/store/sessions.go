package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

const sessionColumns = `ts.id, ts.user_id, ts.profession_id, ts.status, ts.questions_count,
	ts.correct_answers, ts.score_percentage, ts.started_at, ts.completed_at`

func sessionDest(sess *model.TestSession) []any {
	return []any{
		&sess.ID, &sess.UserID, &sess.ProfessionID, &sess.Status, &sess.QuestionsCount,
		&sess.CorrectAnswers, &sess.ScorePercentage, &sess.StartedAt, &sess.CompletedAt,
	}
}

// CreateSession starts a session for a profession: it inserts the session row,
// draws count questions at random and inserts one empty answer row per drawn
// question, in draw order. The drawn questions are returned in the same order.
func (s *Store) CreateSession(ctx context.Context, professionID int64, count int) (model.TestSession, []model.Question, error) {
	sess := model.TestSession{
		ProfessionID:   professionID,
		Status:         model.StatusInProgress,
		QuestionsCount: count,
		StartedAt:      time.Now().UTC(),
	}
	var questions []model.Question

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO test_sessions (user_id, profession_id, status, questions_count, started_at)
			 VALUES (NULL, ?, ?, ?, ?)`,
			professionID, sess.Status, count, sess.StartedAt,
		)
		if err != nil {
			return err
		}
		if sess.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT `+questionColumns+` FROM questions q
			 WHERE q.profession_id = ?
			 ORDER BY RANDOM()
			 LIMIT ?`, professionID, count)
		if err != nil {
			return err
		}
		if questions, err = scanQuestions(rows); err != nil {
			return err
		}

		for _, q := range questions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO user_answers (test_session_id, question_id, user_answer, is_correct)
				 VALUES (?, ?, NULL, NULL)`,
				sess.ID, q.ID,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.TestSession{}, nil, err
	}
	return sess, questions, nil
}

// GetSession returns a session by ID.
func (s *Store) GetSession(ctx context.Context, id int64) (model.TestSession, error) {
	var sess model.TestSession
	err := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions ts WHERE ts.id = ?`, id,
	).Scan(sessionDest(&sess)...)
	return sess, err
}

// GetSessionWithProfession returns a session joined with its profession.
func (s *Store) GetSessionWithProfession(ctx context.Context, id int64) (model.SessionWithProfession, error) {
	var sp model.SessionWithProfession
	p := &sp.Profession
	dest := append(sessionDest(&sp.Session),
		&p.ID, &p.Slug, &p.NameEN, &p.NameRU, &p.DescriptionEN, &p.DescriptionRU, &p.Icon, &p.CreatedAt)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`, `+professionColumns+`
		 FROM test_sessions ts
		 JOIN professions p ON p.id = ts.profession_id
		 WHERE ts.id = ?`, id,
	).Scan(dest...)
	return sp, err
}

// CompleteSession moves an in-progress session to completed and stamps
// completed_at. It reports whether this call performed the transition.
func (s *Store) CompleteSession(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE test_sessions SET status = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		model.StatusCompleted, time.Now().UTC(), id, model.StatusInProgress,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateSessionScore stores the computed score on the session row.
func (s *Store) UpdateSessionScore(ctx context.Context, id int64, correct int, percentage float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE test_sessions SET correct_answers = ?, score_percentage = ? WHERE id = ?`,
		correct, percentage, id,
	)
	return err
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]model.TestSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions ts ORDER BY ts.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.TestSession
	for rows.Next() {
		var sess model.TestSession
		if err := rows.Scan(sessionDest(&sess)...); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
