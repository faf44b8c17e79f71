package service

import (
	"context"

	"github.com/fdecunta/screenie/internal/domain"
)

// FileRepositoryInterface persists source files
type FileRepositoryInterface interface {
	// GetOrCreate inserts f unless a file with the same content exists. It
	// fills f's ID and CreatedAt and reports whether a row was inserted.
	GetOrCreate(ctx context.Context, f *domain.SourceFile) (bool, error)
	GetByContent(ctx context.Context, content []byte) (*domain.SourceFile, error)
	List(ctx context.Context) ([]*domain.SourceFile, error)
}

// StudyRepositoryInterface persists studies
type StudyRepositoryInterface interface {
	CreateBatch(ctx context.Context, studies []*domain.Study) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Study, error)
	// ListPending returns up to limit study ids without a result for the
	// recipe, in ascending id order.
	ListPending(ctx context.Context, recipeID int64, limit int) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

// RecipeRepositoryInterface persists recipes
type RecipeRepositoryInterface interface {
	// GetOrCreate returns the recipe with r's content, inserting r if none
	// exists.
	GetOrCreate(ctx context.Context, r *domain.Recipe) (*domain.Recipe, error)
	GetByContent(ctx context.Context, content string) (*domain.Recipe, error)
	// ListByFileName returns recipes registered from files with this name.
	ListByFileName(ctx context.Context, name string) ([]*domain.Recipe, error)
	List(ctx context.Context) ([]*domain.Recipe, error)
}

// LLMCallRepositoryInterface persists model call audit records
type LLMCallRepositoryInterface interface {
	Create(ctx context.Context, c *domain.LLMCall) error
}

// ResultRepositoryInterface persists screening results
type ResultRepositoryInterface interface {
	// Create returns domain.ErrResultAlreadyExists when the study already
	// has a result for the recipe.
	Create(ctx context.Context, r *domain.ScreeningResult) error
	ListForExport(ctx context.Context, recipeID int64) ([]*ExportRow, error)
	Summaries(ctx context.Context) ([]*RecipeSummary, error)
}

// ExportRow is a study joined with its result under one recipe. Verdict is
// nil for studies not screened yet.
type ExportRow struct {
	Study   domain.Study
	Verdict *domain.Verdict
	Reason  string
}

// RecipeSummary aggregates the results of one recipe.
type RecipeSummary struct {
	RecipeID  int64
	FileName  string
	Screened  int64
	Included  int64
	Calls     int64
	TokensIn  int64
	TokensOut int64
}
