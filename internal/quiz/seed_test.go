package quiz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/profquiz/internal/model"
)

func TestImportFileSkipsUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	path := writeSeed(t, t.TempDir(), 3, "devops")

	rep, err := svc.ImportFile(ctx, path, false)
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
	assert.Equal(t, 1, rep.Professions)
	assert.Equal(t, 3, rep.Questions)

	rep, err = svc.ImportFile(ctx, path, true)
	require.NoError(t, err)
	assert.True(t, rep.Skipped)

	p, err := svc.GetProfession(ctx, "devops")
	require.NoError(t, err)
	assert.Equal(t, 3, p.QuestionsCount, "second import must not duplicate questions")
}

func TestImportFileChanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := svc.ImportFile(ctx, writeSeed(t, dir, 2, "devops"), false)
	require.NoError(t, err)

	rep, err := svc.ImportFile(ctx, writeSeed(t, dir, 1, "devops"), false)
	require.NoError(t, err)
	assert.True(t, rep.Skipped, "changed file is skipped without force")

	rep, err = svc.ImportFile(ctx, filepath.Join(dir, "seed.json"), true)
	require.NoError(t, err)
	assert.False(t, rep.Skipped)

	list, err := svc.ListProfessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "profession is upserted by slug")
	assert.Equal(t, 3, list[0].QuestionsCount)
}

func TestImportFileRejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"professions": [`), 0o644))
	_, err := svc.ImportFile(ctx, bad, false)
	assert.Error(t, err)

	noSlug := filepath.Join(dir, "noslug.json")
	require.NoError(t, os.WriteFile(noSlug, []byte(`{"professions": [{"name_en": "X"}]}`), 0o644))
	_, err = svc.ImportFile(ctx, noSlug, false)
	assert.Error(t, err)

	_, err = svc.ImportFile(ctx, filepath.Join(dir, "missing.json"), false)
	assert.Error(t, err)
}

func TestImportFileIsAtomic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.json")

	qa := professionImport("qa", 1)
	qa.Questions[0].OptionDRU = ""
	saveSeed(t, path, model.SeedFile{Professions: []model.ProfessionImport{professionImport("devops", 3), qa}})

	_, err := svc.ImportFile(ctx, path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "option_d_ru")

	list, err := svc.ListProfessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "a failed import writes nothing")
	hash, err := svc.store.GetImportedFileHash(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, hash, "a failed import is not recorded")

	qa.Questions[0].OptionDRU = "Дельта"
	saveSeed(t, path, model.SeedFile{Professions: []model.ProfessionImport{professionImport("devops", 3), qa}})

	rep, err := svc.ImportFile(ctx, path, false)
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
	assert.Equal(t, 2, rep.Professions)
	assert.Equal(t, 4, rep.Questions)

	devops, err := svc.GetProfession(ctx, "devops")
	require.NoError(t, err)
	assert.Equal(t, 3, devops.QuestionsCount)

	hash, err = svc.store.GetImportedFileHash(ctx, path)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

type fakeGenerator struct {
	calls  int
	failOn map[int]bool
	avoid  [][]string
}

func (f *fakeGenerator) GenerateQuestion(_ context.Context, p model.Profession, avoid []string) (model.QuestionImport, error) {
	f.calls++
	f.avoid = append(f.avoid, avoid)
	if f.failOn[f.calls] {
		return model.QuestionImport{}, errors.New("provider error")
	}
	q := seedQuestion(100+f.calls, model.ChoiceB)
	q.QuestionEN = p.NameEN + " generated " + q.QuestionEN
	return q, nil
}

func TestGenerateQuestions(t *testing.T) {
	svc := seededService(t, 2, "devops")
	ctx := context.Background()
	gen := &fakeGenerator{failOn: map[int]bool{2: true}}

	rep, err := svc.GenerateQuestions(ctx, gen, "devops", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Failed)

	p, err := svc.GetProfession(ctx, "devops")
	require.NoError(t, err)
	assert.Equal(t, 4, p.QuestionsCount)

	// Existing and freshly generated questions are passed as avoid hints.
	assert.Len(t, gen.avoid[0], 2)
	assert.Len(t, gen.avoid[2], 3)
}

func TestGenerateQuestionsErrors(t *testing.T) {
	svc := seededService(t, 1, "devops")
	gen := &fakeGenerator{}

	_, err := svc.GenerateQuestions(context.Background(), gen, "chef", 1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GenerateQuestions(context.Background(), gen, "devops", 0, 0)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Zero(t, gen.calls)
}
