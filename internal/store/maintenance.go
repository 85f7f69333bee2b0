package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// MaintenanceReport holds row counts observed around a maintenance run.
type MaintenanceReport struct {
	QuestionsBefore  int
	QuestionsAfter   int
	SessionsBefore   int
	SessionsAfter    int
	AnswersBefore    int
	AnswersAfter     int
	AnswersRepointed int
	AnswersMerged    int
	AnswersDeleted   int
}

const questionsTableDDL = `CREATE TABLE questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	profession_id INTEGER NOT NULL,
	question_en TEXT NOT NULL,
	question_ru TEXT NOT NULL,
	option_a_en TEXT NOT NULL,
	option_a_ru TEXT NOT NULL,
	option_b_en TEXT NOT NULL,
	option_b_ru TEXT NOT NULL,
	option_c_en TEXT NOT NULL,
	option_c_ru TEXT NOT NULL,
	option_d_en TEXT NOT NULL,
	option_d_ru TEXT NOT NULL,
	correct_answer TEXT NOT NULL CHECK (correct_answer IN ('A', 'B', 'C', 'D')),
	explanation_en TEXT NOT NULL,
	explanation_ru TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT 'medium' CHECK (difficulty IN ('easy', 'medium', 'hard')),
	created_at DATETIME NOT NULL,
	FOREIGN KEY (profession_id) REFERENCES professions(id) ON DELETE CASCADE
)`

const questionCopyColumns = `id, profession_id, question_en, question_ru,
	option_a_en, option_a_ru, option_b_en, option_b_ru,
	option_c_en, option_c_ru, option_d_en, option_d_ru,
	correct_answer, explanation_en, explanation_ru, difficulty, created_at`

func snapshotCounts(ctx context.Context, q rowQuerier) (questions, sessions, answers int, err error) {
	if questions, err = countRows(ctx, q, "questions"); err != nil {
		return
	}
	if sessions, err = countRows(ctx, q, "test_sessions"); err != nil {
		return
	}
	answers, err = countRows(ctx, q, "user_answers")
	return
}

// WipeQuestions deletes every answer, session and question.
func (s *Store) WipeQuestions(ctx context.Context) (MaintenanceReport, error) {
	var rep MaintenanceReport
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if rep.QuestionsBefore, rep.SessionsBefore, rep.AnswersBefore, err = snapshotCounts(ctx, tx); err != nil {
			return err
		}
		slog.Info("wipe: before", "questions", rep.QuestionsBefore, "sessions", rep.SessionsBefore, "answers", rep.AnswersBefore)

		for _, table := range []string{"user_answers", "test_sessions", "questions"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}

		if rep.QuestionsAfter, rep.SessionsAfter, rep.AnswersAfter, err = snapshotCounts(ctx, tx); err != nil {
			return err
		}
		slog.Info("wipe: after", "questions", rep.QuestionsAfter, "sessions", rep.SessionsAfter, "answers", rep.AnswersAfter)
		return nil
	})
	return rep, err
}

// RebuildQuestions recreates the questions table with its foreign key and
// check constraints, preserving every row through a backup table. Foreign key
// enforcement is suspended on a dedicated connection for the duration and the
// result is verified with PRAGMA foreign_key_check before commit.
func (s *Store) RebuildQuestions(ctx context.Context) (MaintenanceReport, error) {
	var rep MaintenanceReport

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return rep, err
	}
	defer conn.Close()

	// foreign_keys cannot be changed inside a transaction.
	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return rep, fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), `PRAGMA foreign_keys = ON`); err != nil {
			slog.Error("re-enable foreign keys", "error", err)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return rep, err
	}
	defer tx.Rollback()

	if rep.QuestionsBefore, rep.SessionsBefore, rep.AnswersBefore, err = snapshotCounts(ctx, tx); err != nil {
		return rep, err
	}
	slog.Info("rebuild questions: before", "questions", rep.QuestionsBefore)

	steps := []struct{ name, sql string }{
		{"drop stale backup", `DROP TABLE IF EXISTS questions_backup`},
		{"backup", `CREATE TABLE questions_backup AS SELECT * FROM questions`},
		{"drop", `DROP TABLE questions`},
		{"recreate", questionsTableDDL},
		{"restore", `INSERT INTO questions (` + questionCopyColumns + `)
			SELECT ` + questionCopyColumns + ` FROM questions_backup`},
		{"index", `CREATE INDEX IF NOT EXISTS idx_questions_profession ON questions(profession_id)`},
		{"drop backup", `DROP TABLE questions_backup`},
	}
	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, st.sql); err != nil {
			return rep, fmt.Errorf("rebuild questions (%s): %w", st.name, err)
		}
	}

	if rep.QuestionsAfter, rep.SessionsAfter, rep.AnswersAfter, err = snapshotCounts(ctx, tx); err != nil {
		return rep, err
	}
	if rep.QuestionsAfter != rep.QuestionsBefore {
		return rep, fmt.Errorf("rebuild questions: row count changed from %d to %d", rep.QuestionsBefore, rep.QuestionsAfter)
	}

	violations, err := countFKViolations(ctx, tx)
	if err != nil {
		return rep, err
	}
	if violations > 0 {
		return rep, fmt.Errorf("rebuild questions: %d foreign key violations", violations)
	}

	if err := tx.Commit(); err != nil {
		return rep, err
	}
	slog.Info("rebuild questions: after", "questions", rep.QuestionsAfter)
	return rep, nil
}

func countFKViolations(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return 0, fmt.Errorf("foreign key check: %w", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

type sessionQuestion struct {
	sessionID  int64
	questionID int64
}

// DeduplicateQuestions collapses questions that share a profession, all
// question and option text and the correct answer into the one with the lowest
// ID. Answer rows pointing at a removed duplicate are moved to the survivor,
// unless their session already holds the survivor. In that case the
// duplicate's answer is copied onto the survivor's row when that row is still
// unanswered, and the duplicate row is deleted.
func (s *Store) DeduplicateQuestions(ctx context.Context) (MaintenanceReport, error) {
	var rep MaintenanceReport
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if rep.QuestionsBefore, rep.SessionsBefore, rep.AnswersBefore, err = snapshotCounts(ctx, tx); err != nil {
			return err
		}
		slog.Info("dedup: before", "questions", rep.QuestionsBefore, "answers", rep.AnswersBefore)

		keepOf, err := loadDuplicates(ctx, tx)
		if err != nil {
			return err
		}
		if len(keepOf) == 0 {
			rep.QuestionsAfter, rep.SessionsAfter, rep.AnswersAfter = rep.QuestionsBefore, rep.SessionsBefore, rep.AnswersBefore
			slog.Info("dedup: no duplicates found")
			return nil
		}

		type answerRef struct {
			id int64
			sessionQuestion
		}
		rows, err := tx.QueryContext(ctx, `SELECT id, test_session_id, question_id FROM user_answers ORDER BY id`)
		if err != nil {
			return err
		}
		var answers []answerRef
		for rows.Next() {
			var a answerRef
			if err := rows.Scan(&a.id, &a.sessionID, &a.questionID); err != nil {
				rows.Close()
				return err
			}
			answers = append(answers, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		taken := make(map[sessionQuestion]bool)
		for _, a := range answers {
			if _, dup := keepOf[a.questionID]; !dup {
				taken[a.sessionQuestion] = true
			}
		}
		for _, a := range answers {
			keep, dup := keepOf[a.questionID]
			if !dup {
				continue
			}
			target := sessionQuestion{sessionID: a.sessionID, questionID: keep}
			if taken[target] {
				res, err := tx.ExecContext(ctx,
					`UPDATE user_answers SET (user_answer, is_correct, answered_at) =
						(SELECT user_answer, is_correct, answered_at FROM user_answers WHERE id = ?)
					 WHERE test_session_id = ? AND question_id = ? AND user_answer IS NULL
					   AND EXISTS (SELECT 1 FROM user_answers WHERE id = ? AND user_answer IS NOT NULL)`,
					a.id, a.sessionID, keep, a.id)
				if err != nil {
					return fmt.Errorf("merge answer %d: %w", a.id, err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					rep.AnswersMerged++
				}
				if _, err := tx.ExecContext(ctx, `DELETE FROM user_answers WHERE id = ?`, a.id); err != nil {
					return err
				}
				rep.AnswersDeleted++
				continue
			}
			if _, err := tx.ExecContext(ctx, `UPDATE user_answers SET question_id = ? WHERE id = ?`, keep, a.id); err != nil {
				return err
			}
			taken[target] = true
			rep.AnswersRepointed++
		}

		for dupID := range keepOf {
			if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, dupID); err != nil {
				return fmt.Errorf("delete duplicate question %d: %w", dupID, err)
			}
		}

		if rep.QuestionsAfter, rep.SessionsAfter, rep.AnswersAfter, err = snapshotCounts(ctx, tx); err != nil {
			return err
		}
		slog.Info("dedup: after",
			"questions", rep.QuestionsAfter,
			"removed", rep.QuestionsBefore-rep.QuestionsAfter,
			"answers_repointed", rep.AnswersRepointed,
			"answers_merged", rep.AnswersMerged,
			"answers_deleted", rep.AnswersDeleted,
		)
		return nil
	})
	return rep, err
}

// loadDuplicates maps every duplicate question ID to the ID that survives.
func loadDuplicates(ctx context.Context, tx *sql.Tx) (map[int64]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, keep_id FROM (
			SELECT id, MIN(id) OVER (PARTITION BY
				profession_id, question_en, question_ru,
				option_a_en, option_a_ru, option_b_en, option_b_ru,
				option_c_en, option_c_ru, option_d_en, option_d_ru,
				correct_answer) AS keep_id
			FROM questions
		) WHERE id <> keep_id`)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer rows.Close()
	keepOf := make(map[int64]int64)
	for rows.Next() {
		var id, keep int64
		if err := rows.Scan(&id, &keep); err != nil {
			return nil, err
		}
		keepOf[id] = keep
	}
	return keepOf, rows.Err()
}
