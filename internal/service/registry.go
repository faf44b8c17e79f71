package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/recipe"
	"github.com/fdecunta/screenie/internal/telemetry"
	"go.uber.org/zap"
)

// RegisteredRecipe pairs a stored recipe with its parsed settings.
type RegisteredRecipe struct {
	Recipe  *domain.Recipe
	Config  *recipe.Recipe
	Created bool
}

// RecipeRegistry maps recipe files to stable recipe identities.
type RecipeRegistry struct {
	txRunner TxRunner
	logger   *zap.Logger
}

// NewRecipeRegistry creates a new RecipeRegistry instance
func NewRecipeRegistry(txRunner TxRunner, logger *zap.Logger) *RecipeRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeRegistry{txRunner: txRunner, logger: logger}
}

// ParseRecipe validates the recipe file content, picking the format from the
// filename extension.
func ParseRecipe(filename string, content []byte) (*recipe.Recipe, error) {
	format, err := recipe.FormatFromPath(filename)
	if err != nil {
		return nil, err
	}
	return recipe.Parse(content, format)
}

// RegisterOrReuse returns the recipe identity for a recipe file, storing the
// file and the recipe the first time they are seen.
//
// Identical file bytes always map to the same recipe. A new file whose
// canonical settings match an existing recipe reuses that recipe. A filename
// already registered with different settings is rejected with
// domain.ErrRecipeNameConflict.
func (r *RecipeRegistry) RegisterOrReuse(ctx context.Context, filename string, content []byte) (*RegisteredRecipe, error) {
	ctx, span := telemetry.StartSpan(ctx, "RecipeRegistry.RegisterOrReuse", telemetry.SpanAttributes{
		Operation: "register",
	})
	defer span.End()

	cfg, err := ParseRecipe(filename, content)
	if err != nil {
		return nil, err
	}
	canonical, err := cfg.Content()
	if err != nil {
		return nil, err
	}

	var out *RegisteredRecipe
	err = r.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		existing, err := repos.Files().GetByContent(ctx, content)
		if err != nil && !errors.Is(err, domain.ErrFileNotFound) {
			return err
		}

		if existing == nil {
			if err := checkNameConflict(ctx, repos.Recipes(), filename, canonical); err != nil {
				return err
			}
			existing = domain.NewSourceFile(filename, content)
			if _, err := repos.Files().GetOrCreate(ctx, existing); err != nil {
				return err
			}
		}

		out = &RegisteredRecipe{Config: cfg}
		stored, err := repos.Recipes().GetByContent(ctx, canonical)
		if err == nil {
			out.Recipe = stored
			return nil
		}
		if !errors.Is(err, domain.ErrRecipeNotFound) {
			return err
		}

		stored, err = repos.Recipes().GetOrCreate(ctx, &domain.Recipe{FileID: existing.ID, Content: canonical})
		if err != nil {
			return err
		}
		out.Recipe = stored
		out.Created = true
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	r.logger.Debug("recipe resolved",
		zap.Int64("recipe_id", out.Recipe.ID),
		zap.String("file", filename),
		zap.Bool("created", out.Created),
	)
	return out, nil
}

// Lookup resolves a recipe file to an already registered recipe without
// writing anything. It returns domain.ErrRecipeNotFound when the recipe has
// not been registered yet.
func (r *RecipeRegistry) Lookup(ctx context.Context, filename string, content []byte) (*RegisteredRecipe, error) {
	cfg, err := ParseRecipe(filename, content)
	if err != nil {
		return nil, err
	}
	canonical, err := cfg.Content()
	if err != nil {
		return nil, err
	}

	var out *RegisteredRecipe
	err = r.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := checkNameConflict(ctx, repos.Recipes(), filename, canonical); err != nil {
			return err
		}
		stored, err := repos.Recipes().GetByContent(ctx, canonical)
		if err != nil {
			return err
		}
		out = &RegisteredRecipe{Recipe: stored, Config: cfg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkNameConflict(ctx context.Context, recipes RecipeRepositoryInterface, filename, canonical string) error {
	sameName, err := recipes.ListByFileName(ctx, filename)
	if err != nil {
		return err
	}
	for _, rec := range sameName {
		if rec.Content != canonical {
			return fmt.Errorf("%w: %q is registered as recipe %d", domain.ErrRecipeNameConflict, filename, rec.ID)
		}
	}
	return nil
}
