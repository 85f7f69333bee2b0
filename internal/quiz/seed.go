package quiz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pavelanni/profquiz/internal/model"
)

// ImportReport describes the outcome of importing one seed file.
type ImportReport struct {
	Path        string
	Skipped     bool
	Professions int
	Questions   int
}

// ImportFile loads professions and their questions from a JSON seed file.
// Files whose content hash matches the last recorded import are skipped.
// A file that changed since its last import is also skipped unless force is
// set, because re-importing appends its questions again. The whole file is
// imported in one transaction together with its hash, so a failed import
// leaves nothing behind.
func (s *Service) ImportFile(ctx context.Context, path string, force bool) (ImportReport, error) {
	rep := ImportReport{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return rep, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return rep, fmt.Errorf("read seed file: %w", err)
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	stored, err := s.store.GetImportedFileHash(ctx, abs)
	if err != nil {
		return rep, fmt.Errorf("check import status: %w", err)
	}
	if stored == hash {
		slog.Info("seed file unchanged, skipping", "path", abs)
		rep.Skipped = true
		return rep, nil
	}
	if stored != "" && !force {
		slog.Warn("seed file changed since last import, skipping to avoid duplicate questions", "path", abs)
		rep.Skipped = true
		return rep, nil
	}

	var seed model.SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return rep, fmt.Errorf("parse seed file %s: %w", abs, err)
	}

	for i := range seed.Professions {
		qs := seed.Professions[i].Questions
		for j := range qs {
			if qs[j].Difficulty == "" {
				qs[j].Difficulty = model.DifficultyMedium
			}
		}
	}

	n, err := s.store.ImportSeed(ctx, abs, hash, seed.Professions)
	if err != nil {
		return rep, fmt.Errorf("import seed file %s: %w", abs, err)
	}
	rep.Professions = len(seed.Professions)
	rep.Questions = n

	slog.Info("imported seed file", "path", abs, "professions", rep.Professions, "questions", rep.Questions)
	return rep, nil
}
