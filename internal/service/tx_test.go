package service

import (
	"bytes"
	"context"
	"time"

	"github.com/fdecunta/screenie/internal/domain"
)

// memStore is an in-memory store with transaction rollback. It implements
// TxRunner and TxRepositories.
type memStore struct {
	state   memState
	commits int
	// callErr, when set, fails every LLMCalls().Create.
	callErr error
}

type memState struct {
	files   []*domain.SourceFile
	studies []*domain.Study
	recipes []*domain.Recipe
	calls   []*domain.LLMCall
	results []*domain.ScreeningResult
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) snapshot() memState {
	return memState{
		files:   append([]*domain.SourceFile(nil), m.state.files...),
		studies: append([]*domain.Study(nil), m.state.studies...),
		recipes: append([]*domain.Recipe(nil), m.state.recipes...),
		calls:   append([]*domain.LLMCall(nil), m.state.calls...),
		results: append([]*domain.ScreeningResult(nil), m.state.results...),
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.state = snap
		return err
	}
	m.commits++
	return nil
}

func (m *memStore) Files() FileRepositoryInterface       { return memFiles{m} }
func (m *memStore) Studies() StudyRepositoryInterface    { return memStudies{m} }
func (m *memStore) Recipes() RecipeRepositoryInterface   { return memRecipes{m} }
func (m *memStore) LLMCalls() LLMCallRepositoryInterface { return memCalls{m} }
func (m *memStore) Results() ResultRepositoryInterface   { return memResults{m} }

// addStudies stores n studies titled "Study <id>" published in 2020.
func (m *memStore) addStudies(n int) {
	for i := 0; i < n; i++ {
		id := int64(len(m.state.studies) + 1)
		m.state.studies = append(m.state.studies, &domain.Study{
			ID:       id,
			FileID:   1,
			Title:    "Study " + string(rune('A'+i)),
			Authors:  "Doe, J.",
			Year:     2020,
			Abstract: "An abstract.",
		})
	}
}

func (m *memStore) resultFor(recipeID, studyID int64) *domain.ScreeningResult {
	for _, r := range m.state.results {
		if r.RecipeID == recipeID && r.StudyID == studyID {
			return r
		}
	}
	return nil
}

type memFiles struct{ m *memStore }

func (r memFiles) GetOrCreate(ctx context.Context, f *domain.SourceFile) (bool, error) {
	if existing, err := r.GetByContent(ctx, f.Content); err == nil {
		*f = *existing
		return false, nil
	}
	f.ID = int64(len(r.m.state.files) + 1)
	f.SHA256 = domain.ContentDigest(f.Content)
	f.CreatedAt = time.Now().UTC()
	stored := *f
	r.m.state.files = append(r.m.state.files, &stored)
	return true, nil
}

func (r memFiles) GetByContent(ctx context.Context, content []byte) (*domain.SourceFile, error) {
	for _, f := range r.m.state.files {
		if bytes.Equal(f.Content, content) {
			out := *f
			return &out, nil
		}
	}
	return nil, domain.ErrFileNotFound
}

func (r memFiles) List(ctx context.Context) ([]*domain.SourceFile, error) {
	return append([]*domain.SourceFile(nil), r.m.state.files...), nil
}

type memStudies struct{ m *memStore }

func (r memStudies) CreateBatch(ctx context.Context, studies []*domain.Study) (int64, error) {
	for _, s := range studies {
		s.ID = int64(len(r.m.state.studies) + 1)
		stored := *s
		r.m.state.studies = append(r.m.state.studies, &stored)
	}
	return int64(len(studies)), nil
}

func (r memStudies) GetByID(ctx context.Context, id int64) (*domain.Study, error) {
	for _, s := range r.m.state.studies {
		if s.ID == id {
			out := *s
			return &out, nil
		}
	}
	return nil, domain.ErrStudyNotFound
}

func (r memStudies) ListPending(ctx context.Context, recipeID int64, limit int) ([]int64, error) {
	ids := make([]int64, 0, limit)
	for _, s := range r.m.state.studies {
		if len(ids) == limit {
			break
		}
		if r.m.resultFor(recipeID, s.ID) == nil {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (r memStudies) Count(ctx context.Context) (int64, error) {
	return int64(len(r.m.state.studies)), nil
}

type memRecipes struct{ m *memStore }

func (r memRecipes) GetOrCreate(ctx context.Context, rec *domain.Recipe) (*domain.Recipe, error) {
	if existing, err := r.GetByContent(ctx, rec.Content); err == nil {
		return existing, nil
	}
	stored := &domain.Recipe{
		ID:        int64(len(r.m.state.recipes) + 1),
		FileID:    rec.FileID,
		Content:   rec.Content,
		CreatedAt: time.Now().UTC(),
	}
	r.m.state.recipes = append(r.m.state.recipes, stored)
	out := *stored
	return &out, nil
}

func (r memRecipes) GetByContent(ctx context.Context, content string) (*domain.Recipe, error) {
	for _, rec := range r.m.state.recipes {
		if rec.Content == content {
			out := *rec
			return &out, nil
		}
	}
	return nil, domain.ErrRecipeNotFound
}

func (r memRecipes) ListByFileName(ctx context.Context, name string) ([]*domain.Recipe, error) {
	var out []*domain.Recipe
	for _, rec := range r.m.state.recipes {
		for _, f := range r.m.state.files {
			if f.ID == rec.FileID && f.Name == name {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (r memRecipes) List(ctx context.Context) ([]*domain.Recipe, error) {
	return append([]*domain.Recipe(nil), r.m.state.recipes...), nil
}

type memCalls struct{ m *memStore }

func (r memCalls) Create(ctx context.Context, c *domain.LLMCall) error {
	if r.m.callErr != nil {
		return r.m.callErr
	}
	c.ID = int64(len(r.m.state.calls) + 1)
	c.CreatedAt = time.Now().UTC()
	stored := *c
	r.m.state.calls = append(r.m.state.calls, &stored)
	return nil
}

type memResults struct{ m *memStore }

func (r memResults) Create(ctx context.Context, res *domain.ScreeningResult) error {
	if r.m.resultFor(res.RecipeID, res.StudyID) != nil {
		return domain.ErrResultAlreadyExists
	}
	res.ID = int64(len(r.m.state.results) + 1)
	res.CreatedAt = time.Now().UTC()
	stored := *res
	r.m.state.results = append(r.m.state.results, &stored)
	return nil
}

func (r memResults) ListForExport(ctx context.Context, recipeID int64) ([]*ExportRow, error) {
	var out []*ExportRow
	for _, s := range r.m.state.studies {
		row := &ExportRow{Study: *s}
		if res := r.m.resultFor(recipeID, s.ID); res != nil {
			v := res.Verdict
			row.Verdict = &v
			row.Reason = res.Reason
		}
		out = append(out, row)
	}
	return out, nil
}

func (r memResults) Summaries(ctx context.Context) ([]*RecipeSummary, error) {
	var out []*RecipeSummary
	for _, rec := range r.m.state.recipes {
		sum := &RecipeSummary{RecipeID: rec.ID}
		for _, f := range r.m.state.files {
			if f.ID == rec.FileID {
				sum.FileName = f.Name
			}
		}
		for _, res := range r.m.state.results {
			if res.RecipeID == rec.ID {
				sum.Screened++
				if res.Verdict == domain.VerdictInclude {
					sum.Included++
				}
			}
		}
		for _, c := range r.m.state.calls {
			if c.RecipeID == rec.ID {
				sum.Calls++
				sum.TokensIn += int64(c.InputTokens)
				sum.TokensOut += int64(c.OutputTokens)
			}
		}
		out = append(out, sum)
	}
	return out, nil
}
