package store

import (
	"context"
	"time"

	"github.com/pavelanni/profquiz/internal/model"
)

const professionColumns = `p.id, p.slug, p.name_en, p.name_ru, p.description_en, p.description_ru, p.icon, p.created_at`

func scanProfession(row rowScanner, extra ...any) (model.Profession, error) {
	var p model.Profession
	dest := append([]any{&p.ID, &p.Slug, &p.NameEN, &p.NameRU, &p.DescriptionEN, &p.DescriptionRU, &p.Icon, &p.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return p, err
}

// upsertProfession inserts a profession or updates the one with the same
// slug, returning its ID.
func upsertProfession(ctx context.Context, q queryExecer, p model.Profession) (int64, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO professions (slug, name_en, name_ru, description_en, description_ru, icon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		   name_en = excluded.name_en,
		   name_ru = excluded.name_ru,
		   description_en = excluded.description_en,
		   description_ru = excluded.description_ru,
		   icon = excluded.icon`,
		p.Slug, p.NameEN, p.NameRU, p.DescriptionEN, p.DescriptionRU, p.Icon, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = q.QueryRowContext(ctx, `SELECT id FROM professions WHERE slug = ?`, p.Slug).Scan(&id)
	return id, err
}

// GetProfessionBySlug returns a profession by slug.
func (s *Store) GetProfessionBySlug(ctx context.Context, slug string) (model.Profession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+professionColumns+` FROM professions p WHERE p.slug = ?`, slug)
	return scanProfession(row)
}

// GetProfessionWithCount returns a profession by slug with its question count.
func (s *Store) GetProfessionWithCount(ctx context.Context, slug string) (model.ProfessionWithCount, error) {
	var pc model.ProfessionWithCount
	row := s.db.QueryRowContext(ctx,
		`SELECT `+professionColumns+`, COUNT(q.id)
		 FROM professions p
		 LEFT JOIN questions q ON q.profession_id = p.id
		 WHERE p.slug = ?
		 GROUP BY p.id`, slug)
	p, err := scanProfession(row, &pc.QuestionsCount)
	pc.Profession = p
	return pc, err
}

// ListProfessionsWithCounts returns all professions, oldest first, with the
// number of questions referencing each.
func (s *Store) ListProfessionsWithCounts(ctx context.Context) ([]model.ProfessionWithCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+professionColumns+`, COUNT(q.id)
		 FROM professions p
		 LEFT JOIN questions q ON q.profession_id = p.id
		 GROUP BY p.id
		 ORDER BY p.created_at ASC, p.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.ProfessionWithCount
	for rows.Next() {
		var pc model.ProfessionWithCount
		p, err := scanProfession(rows, &pc.QuestionsCount)
		if err != nil {
			return nil, err
		}
		pc.Profession = p
		list = append(list, pc)
	}
	return list, rows.Err()
}

// ProfessionCount returns the number of professions in the database.
func (s *Store) ProfessionCount(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "professions")
}
