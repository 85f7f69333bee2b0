package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pavelanni/profquiz/internal/model"
)

func TestWipeQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pid := insertTestProfession(t, s, "devops")
	insertTestQuestion(t, s, pid, "Q1")
	insertTestQuestion(t, s, pid, "Q2")
	if _, _, err := s.CreateSession(ctx, pid, 2); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rep, err := s.WipeQuestions(ctx)
	if err != nil {
		t.Fatalf("WipeQuestions: %v", err)
	}
	if rep.QuestionsBefore != 2 || rep.SessionsBefore != 1 || rep.AnswersBefore != 2 {
		t.Errorf("unexpected before counts: %+v", rep)
	}
	if rep.QuestionsAfter != 0 || rep.SessionsAfter != 0 || rep.AnswersAfter != 0 {
		t.Errorf("unexpected after counts: %+v", rep)
	}

	// Professions survive.
	if _, err := s.GetProfessionBySlug(ctx, "devops"); err != nil {
		t.Errorf("expected profession to survive: %v", err)
	}
}

func TestRebuildQuestionsPreservesRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pid := insertTestProfession(t, s, "devops")
	q1 := insertTestQuestion(t, s, pid, "Q1")
	insertTestQuestion(t, s, pid, "Q2")
	sess, _, err := s.CreateSession(ctx, pid, 2)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rep, err := s.RebuildQuestions(ctx)
	if err != nil {
		t.Fatalf("RebuildQuestions: %v", err)
	}
	if rep.QuestionsBefore != 2 || rep.QuestionsAfter != 2 {
		t.Errorf("unexpected counts: %+v", rep)
	}

	q, err := s.GetQuestion(ctx, q1)
	if err != nil {
		t.Fatalf("GetQuestion after rebuild: %v", err)
	}
	if q.QuestionEN != "Q1" {
		t.Errorf("expected Q1, got %q", q.QuestionEN)
	}

	details, err := s.ListAnswerDetails(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListAnswerDetails: %v", err)
	}
	if len(details) != 2 {
		t.Errorf("expected answers to still join, got %d", len(details))
	}

	// Constraints are back in force.
	if _, err := insertQuestion(ctx, s.db, testQuestion(pid, "bad", "Z")); err == nil {
		t.Error("expected CHECK constraint to reject correct_answer Z")
	}
}

func TestDeduplicateQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pid := insertTestProfession(t, s, "devops")

	keep := insertTestQuestion(t, s, pid, "Same")
	other := insertTestQuestion(t, s, pid, "Different")

	// Session A drew only the original.
	sessA, _, err := s.CreateSession(ctx, pid, 2)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	dup := insertTestQuestion(t, s, pid, "Same")

	// Session B holds the duplicate but not the original.
	sessB := createSessionWith(t, s, pid, dup)
	// Session C holds both the original and the duplicate.
	sessC := createSessionWith(t, s, pid, keep, dup)

	// A different correct answer is not a duplicate.
	distinct, err := s.InsertQuestion(ctx, testQuestion(pid, "Same", model.ChoiceB))
	if err != nil {
		t.Fatalf("InsertQuestion: %v", err)
	}

	rep, err := s.DeduplicateQuestions(ctx)
	if err != nil {
		t.Fatalf("DeduplicateQuestions: %v", err)
	}
	if rep.QuestionsBefore != 4 || rep.QuestionsAfter != 3 {
		t.Errorf("unexpected question counts: %+v", rep)
	}
	if rep.AnswersRepointed != 1 || rep.AnswersDeleted != 1 {
		t.Errorf("unexpected answer counts: %+v", rep)
	}

	if _, err := s.GetQuestion(ctx, dup); err != sql.ErrNoRows {
		t.Errorf("expected duplicate %d removed, got %v", dup, err)
	}
	for _, id := range []int64{keep, other, distinct} {
		if _, err := s.GetQuestion(ctx, id); err != nil {
			t.Errorf("expected question %d to survive: %v", id, err)
		}
	}

	b, _ := s.ListAnswers(ctx, sessB)
	if len(b) != 1 || b[0].QuestionID != keep {
		t.Errorf("session B answers not repointed: %+v", b)
	}
	c, _ := s.ListAnswers(ctx, sessC)
	if len(c) != 1 || c[0].QuestionID != keep {
		t.Errorf("session C should keep a single row for the original: %+v", c)
	}
	a, _ := s.ListAnswers(ctx, sessA.ID)
	if len(a) != 2 {
		t.Errorf("session A should be untouched: %+v", a)
	}

	// Running again finds nothing.
	rep, err = s.DeduplicateQuestions(ctx)
	if err != nil {
		t.Fatalf("second DeduplicateQuestions: %v", err)
	}
	if rep.QuestionsBefore != rep.QuestionsAfter {
		t.Errorf("expected no changes, got %+v", rep)
	}
}

func TestDeduplicateKeepsAnswerOfDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pid := insertTestProfession(t, s, "devops")

	keep := insertTestQuestion(t, s, pid, "Same")
	dup := insertTestQuestion(t, s, pid, "Same")

	// Only the duplicate was answered.
	onlyDup := createSessionWith(t, s, pid, keep, dup)
	if err := s.SaveAnswer(ctx, onlyDup, dup, model.ChoiceB, false); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	// Both were answered; the survivor's answer wins.
	both := createSessionWith(t, s, pid, keep, dup)
	if err := s.SaveAnswer(ctx, both, keep, model.ChoiceA, true); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if err := s.SaveAnswer(ctx, both, dup, model.ChoiceC, false); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	rep, err := s.DeduplicateQuestions(ctx)
	if err != nil {
		t.Fatalf("DeduplicateQuestions: %v", err)
	}
	if rep.AnswersMerged != 1 || rep.AnswersDeleted != 2 {
		t.Errorf("unexpected answer counts: %+v", rep)
	}

	got, err := s.GetAnswer(ctx, onlyDup, keep)
	if err != nil {
		t.Fatalf("GetAnswer: %v", err)
	}
	if got.UserAnswer == nil || *got.UserAnswer != model.ChoiceB {
		t.Errorf("answer of the duplicate was lost: %+v", got)
	}
	if got.IsCorrect == nil || *got.IsCorrect {
		t.Errorf("is_correct not carried over: %+v", got)
	}
	if got.AnsweredAt == nil {
		t.Errorf("answered_at not carried over: %+v", got)
	}

	got, err = s.GetAnswer(ctx, both, keep)
	if err != nil {
		t.Fatalf("GetAnswer: %v", err)
	}
	if got.UserAnswer == nil || *got.UserAnswer != model.ChoiceA || got.IsCorrect == nil || !*got.IsCorrect {
		t.Errorf("survivor answer overwritten: %+v", got)
	}
	if list, _ := s.ListAnswers(ctx, both); len(list) != 1 {
		t.Errorf("expected a single row, got %+v", list)
	}
}

// createSessionWith inserts a session holding exactly the given questions.
func createSessionWith(t *testing.T, s *Store, professionID int64, questionIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO test_sessions (profession_id, status, questions_count, started_at)
		 VALUES (?, 'in_progress', ?, CURRENT_TIMESTAMP)`, professionID, len(questionIDs))
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	id, _ := res.LastInsertId()
	for _, qid := range questionIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO user_answers (test_session_id, question_id) VALUES (?, ?)`, id, qid); err != nil {
			t.Fatalf("insert answer: %v", err)
		}
	}
	return id
}
