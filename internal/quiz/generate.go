package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

// QuestionGenerator authors one bilingual question for a profession. avoid
// lists existing question texts that should not be repeated.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, p model.Profession, avoid []string) (model.QuestionImport, error)
}

// GenerateReport describes the outcome of a generation run.
type GenerateReport struct {
	Requested int
	Inserted  int
	Failed    int
}

// maxAvoid caps how many existing questions are passed to the generator.
const maxAvoid = 30

// GenerateQuestions asks gen for count new questions for the profession and
// inserts the valid ones. A failed question is logged and the run continues.
// delay is waited between calls to stay under provider rate limits.
func (s *Service) GenerateQuestions(ctx context.Context, gen QuestionGenerator, slug string, count int, delay time.Duration) (GenerateReport, error) {
	rep := GenerateReport{Requested: count}
	if count <= 0 {
		return rep, fmt.Errorf("%w: count must be positive", ErrBadRequest)
	}

	p, err := s.GetProfession(ctx, slug)
	if err != nil {
		return rep, err
	}

	existing, err := s.store.ListQuestionsByProfession(ctx, p.ID)
	if err != nil {
		return rep, fmt.Errorf("list questions: %w", err)
	}
	avoid := make([]string, 0, len(existing)+count)
	for _, q := range existing {
		avoid = append(avoid, q.QuestionEN)
	}

	for i := 0; i < count; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return rep, ctx.Err()
			case <-time.After(delay):
			}
		}

		recent := avoid
		if len(recent) > maxAvoid {
			recent = recent[len(recent)-maxAvoid:]
		}

		slog.Info("generating question", "profession", p.Slug, "n", i+1, "of", count)
		qi, err := gen.GenerateQuestion(ctx, p.Profession, recent)
		if err != nil {
			slog.Error("generation failed", "profession", p.Slug, "n", i+1, "error", err)
			rep.Failed++
			continue
		}
		if _, err := s.store.InsertQuestion(ctx, qi.Question(p.ID)); err != nil {
			slog.Error("rejected generated question", "profession", p.Slug, "n", i+1, "error", err)
			rep.Failed++
			continue
		}
		avoid = append(avoid, qi.QuestionEN)
		rep.Inserted++
	}

	slog.Info("generation finished", "profession", p.Slug, "inserted", rep.Inserted, "failed", rep.Failed)
	return rep, nil
}
