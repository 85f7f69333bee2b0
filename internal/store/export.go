package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/profquiz/internal/model"
)

// ExportAllSessions builds export-ready results from all sessions, newest first.
func (s *Store) ExportAllSessions(ctx context.Context) ([]model.SessionExport, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	slugs := make(map[int64]string)
	professions, err := s.ListProfessionsWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professions: %w", err)
	}
	for _, p := range professions {
		slugs[p.ID] = p.Slug
	}

	var results []model.SessionExport
	for _, sess := range sessions {
		details, err := s.ListAnswerDetails(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("get answers for session %d: %w", sess.ID, err)
		}

		answers := make([]model.AnswerExport, 0, len(details))
		for _, d := range details {
			answers = append(answers, model.AnswerExport{
				QuestionID:    d.Question.ID,
				QuestionEN:    d.Question.QuestionEN,
				Difficulty:    d.Question.Difficulty,
				UserAnswer:    d.Answer.UserAnswer,
				CorrectAnswer: d.Question.CorrectAnswer,
				IsCorrect:     d.Answer.IsCorrect,
				AnsweredAt:    d.Answer.AnsweredAt,
			})
		}

		results = append(results, model.SessionExport{
			SessionID:       sess.ID,
			ProfessionSlug:  slugs[sess.ProfessionID],
			Status:          sess.Status,
			QuestionsCount:  sess.QuestionsCount,
			CorrectAnswers:  sess.CorrectAnswers,
			ScorePercentage: sess.ScorePercentage,
			StartedAt:       sess.StartedAt,
			CompletedAt:     sess.CompletedAt,
			Answers:         answers,
		})
	}

	return results, nil
}
