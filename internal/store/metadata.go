package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

// GetImportedFileHash returns the SHA-256 recorded for a seed file path.
// Returns empty string and nil error if the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT sha256 FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// setImportedFileHash records the SHA-256 of an imported seed file.
func setImportedFileHash(ctx context.Context, ex execer, path, hash string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET sha256 = excluded.sha256, imported_at = excluded.imported_at`,
		path, hash, time.Now().UTC(),
	)
	return err
}

// ImportSeed stores the professions and questions of one seed file and
// records its hash in a single transaction. Every question is validated
// first, so a bad file writes nothing and can be fixed and imported again.
// It returns the number of questions inserted.
func (s *Store) ImportSeed(ctx context.Context, path, hash string, professions []model.ProfessionImport) (int, error) {
	for _, pi := range professions {
		if pi.Slug == "" {
			return 0, errors.New("profession without slug")
		}
		for i, qi := range pi.Questions {
			if err := qi.Question(0).Validate(); err != nil {
				return 0, fmt.Errorf("profession %q question %d: %w", pi.Slug, i+1, err)
			}
		}
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		inserted = 0
		for _, pi := range professions {
			id, err := upsertProfession(ctx, tx, pi.Profession())
			if err != nil {
				return fmt.Errorf("upsert profession %q: %w", pi.Slug, err)
			}
			for i, qi := range pi.Questions {
				if _, err := insertQuestion(ctx, tx, qi.Question(id)); err != nil {
					return fmt.Errorf("insert question %d for %q: %w", i+1, pi.Slug, err)
				}
				inserted++
			}
		}
		if err := setImportedFileHash(ctx, tx, path, hash); err != nil {
			return fmt.Errorf("record import of %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
