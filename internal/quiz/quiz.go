// Package quiz implements quiz sessions on top of the store: starting a
// session, recording answers and computing results.
package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/pavelanni/profquiz/internal/model"
	"github.com/pavelanni/profquiz/internal/store"
)

var (
	// ErrNotFound is returned for unknown professions, sessions and questions.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned for missing or malformed input.
	ErrBadRequest = errors.New("bad request")
	// ErrSessionCompleted is returned when answering a finished session.
	ErrSessionCompleted = errors.New("session already completed")
)

// Service runs quiz sessions.
type Service struct {
	store *store.Store
}

// NewService creates a Service backed by s.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Stats summarizes the question bank for the home page.
type Stats struct {
	Professions int
	Questions   int
}

// ListProfessions returns every profession with its question count, in
// creation order.
func (s *Service) ListProfessions(ctx context.Context) ([]model.ProfessionSummary, error) {
	list, err := s.store.ListProfessionsWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professions: %w", err)
	}
	summaries := make([]model.ProfessionSummary, 0, len(list))
	if err := copier.Copy(&summaries, &list); err != nil {
		return nil, fmt.Errorf("map professions: %w", err)
	}
	return summaries, nil
}

// GetProfession returns a profession and its question count by slug.
func (s *Service) GetProfession(ctx context.Context, slug string) (model.ProfessionWithCount, error) {
	p, err := s.store.GetProfessionWithCount(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: profession %q", ErrNotFound, slug)
	}
	if err != nil {
		return p, fmt.Errorf("get profession %q: %w", slug, err)
	}
	return p, nil
}

// Stats counts professions and questions.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Professions, err = s.store.ProfessionCount(ctx); err != nil {
		return Stats{}, fmt.Errorf("count professions: %w", err)
	}
	if st.Questions, err = s.store.QuestionCount(ctx); err != nil {
		return Stats{}, fmt.Errorf("count questions: %w", err)
	}
	return st, nil
}

// StartSession creates a session for the profession identified by slug and
// draws questionsCount random questions from its pool. Requests for more
// questions than the pool holds are rejected.
func (s *Service) StartSession(ctx context.Context, slug string, questionsCount int) (model.StartResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || questionsCount <= 0 {
		return model.StartResult{}, fmt.Errorf("%w: professionSlug and a positive questionsCount are required", ErrBadRequest)
	}

	p, err := s.GetProfession(ctx, slug)
	if err != nil {
		return model.StartResult{}, err
	}
	if questionsCount > p.QuestionsCount {
		return model.StartResult{}, fmt.Errorf("%w: requested %d questions, %d available", ErrBadRequest, questionsCount, p.QuestionsCount)
	}

	sess, questions, err := s.store.CreateSession(ctx, p.ID, questionsCount)
	if err != nil {
		return model.StartResult{}, fmt.Errorf("create session: %w", err)
	}

	views := make([]model.QuestionView, 0, len(questions))
	for i, q := range questions {
		views = append(views, model.QuestionView{
			ID:         q.ID,
			Order:      i + 1,
			QuestionEN: q.QuestionEN,
			QuestionRU: q.QuestionRU,
			Options:    q.Options(),
			Difficulty: q.Difficulty,
		})
	}

	slog.Info("session started", "session_id", sess.ID, "profession", p.Slug, "questions", len(views))
	return model.StartResult{
		SessionID:      sess.ID,
		ProfessionID:   p.ID,
		QuestionsCount: len(views),
		Questions:      views,
	}, nil
}

// RecordAnswer stores the chosen option for a question of a session and
// reports whether it was correct. A later answer for the same question
// overwrites an earlier one.
func (s *Service) RecordAnswer(ctx context.Context, sessionID, questionID int64, answer string) (model.AnswerResult, error) {
	if sessionID <= 0 || questionID <= 0 || strings.TrimSpace(answer) == "" {
		return model.AnswerResult{}, fmt.Errorf("%w: sessionId, questionId and answer are required", ErrBadRequest)
	}
	choice, ok := model.ParseChoice(answer)
	if !ok {
		return model.AnswerResult{}, fmt.Errorf("%w: answer must be one of A, B, C, D", ErrBadRequest)
	}

	q, err := s.store.GetQuestion(ctx, questionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnswerResult{}, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	if err != nil {
		return model.AnswerResult{}, fmt.Errorf("get question %d: %w", questionID, err)
	}

	isCorrect := choice == q.CorrectAnswer
	err = s.store.SaveAnswer(ctx, sessionID, questionID, choice, isCorrect)
	if errors.Is(err, store.ErrSessionClosed) {
		return model.AnswerResult{}, fmt.Errorf("%w: session %d", ErrSessionCompleted, sessionID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnswerResult{}, fmt.Errorf("%w: session %d with question %d", ErrNotFound, sessionID, questionID)
	}
	if err != nil {
		return model.AnswerResult{}, fmt.Errorf("save answer: %w", err)
	}

	slog.Debug("answer recorded", "session_id", sessionID, "question_id", questionID, "correct", isCorrect)
	return model.AnswerResult{IsCorrect: isCorrect, CorrectAnswer: q.CorrectAnswer}, nil
}

// GetResults completes the session on first call and returns its score with
// a per-question review. The score is recomputed and stored on every call.
func (s *Service) GetResults(ctx context.Context, sessionID int64) (model.Results, error) {
	if sessionID <= 0 {
		return model.Results{}, fmt.Errorf("%w: invalid session id", ErrBadRequest)
	}

	if _, err := s.store.GetSession(ctx, sessionID); errors.Is(err, sql.ErrNoRows) {
		return model.Results{}, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	} else if err != nil {
		return model.Results{}, fmt.Errorf("get session %d: %w", sessionID, err)
	}

	completed, err := s.store.CompleteSession(ctx, sessionID)
	if err != nil {
		return model.Results{}, fmt.Errorf("complete session %d: %w", sessionID, err)
	}
	if completed {
		slog.Info("session completed", "session_id", sessionID)
	}

	sp, err := s.store.GetSessionWithProfession(ctx, sessionID)
	if err != nil {
		return model.Results{}, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	details, err := s.store.ListAnswerDetails(ctx, sessionID)
	if err != nil {
		return model.Results{}, fmt.Errorf("list answers for session %d: %w", sessionID, err)
	}

	res := model.Results{
		SessionID:        sessionID,
		Status:           sp.Session.Status,
		ProfessionName:   sp.Profession.NameEN,
		ProfessionNameRU: sp.Profession.NameRU,
		ProfessionSlug:   sp.Profession.Slug,
		TotalQuestions:   len(details),
		Questions:        make([]model.ResultItem, 0, len(details)),
	}
	for _, d := range details {
		item := model.ResultItem{
			ID:            d.Question.ID,
			QuestionEN:    d.Question.QuestionEN,
			QuestionRU:    d.Question.QuestionRU,
			UserAnswer:    d.Answer.UserAnswer,
			CorrectAnswer: d.Question.CorrectAnswer,
			Options:       d.Question.Options(),
			ExplanationEN: d.Question.ExplanationEN,
			ExplanationRU: d.Question.ExplanationRU,
			Difficulty:    d.Question.Difficulty,
		}
		switch {
		case d.Answer.IsCorrect != nil && *d.Answer.IsCorrect:
			item.IsCorrect = true
			res.CorrectAnswers++
		case d.Answer.IsCorrect != nil:
			res.IncorrectAnswers++
		}
		if item.Skipped() {
			res.SkippedAnswers++
		}
		res.Questions = append(res.Questions, item)
	}
	res.Percentage = Percentage(res.CorrectAnswers, res.TotalQuestions)

	if err := s.store.UpdateSessionScore(ctx, sessionID, res.CorrectAnswers, res.Percentage); err != nil {
		return model.Results{}, fmt.Errorf("store score for session %d: %w", sessionID, err)
	}
	return res, nil
}

// Percentage returns correct/total as a percentage rounded to two decimals,
// or 0 when total is 0.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}
