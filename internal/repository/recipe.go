package repository

import (
	"context"
	"errors"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RecipeRepository struct {
	db dbtx
}

func NewRecipeRepository(pool *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{db: pool}
}

func NewRecipeRepositoryWithTx(tx pgx.Tx) *RecipeRepository {
	return &RecipeRepository{db: tx}
}

func (r *RecipeRepository) GetOrCreate(ctx context.Context, rec *domain.Recipe) (*domain.Recipe, error) {
	created := &domain.Recipe{FileID: rec.FileID, Content: rec.Content}
	err := r.db.QueryRow(ctx,
		`INSERT INTO recipes (file_id, content, content_sha256)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (content_sha256) DO NOTHING
		 RETURNING id, created_at`,
		rec.FileID, rec.Content, domain.ContentDigest([]byte(rec.Content)),
	).Scan(&created.ID, &created.CreatedAt)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return r.GetByContent(ctx, rec.Content)
}

func (r *RecipeRepository) GetByContent(ctx context.Context, content string) (*domain.Recipe, error) {
	var rec domain.Recipe
	err := r.db.QueryRow(ctx,
		`SELECT id, file_id, content, created_at
		 FROM recipes WHERE content_sha256 = $1 AND content = $2`,
		domain.ContentDigest([]byte(content)), content,
	).Scan(&rec.ID, &rec.FileID, &rec.Content, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecipeRepository) ListByFileName(ctx context.Context, name string) ([]*domain.Recipe, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.file_id, r.content, r.created_at
		 FROM recipes r
		 INNER JOIN files f ON f.id = r.file_id
		 WHERE f.name = $1
		 ORDER BY r.id`,
		name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipeRows(rows)
}

func (r *RecipeRepository) List(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, file_id, content, created_at FROM recipes ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipeRows(rows)
}

func scanRecipeRows(rows pgx.Rows) ([]*domain.Recipe, error) {
	var recipes []*domain.Recipe
	for rows.Next() {
		var rec domain.Recipe
		if err := rows.Scan(&rec.ID, &rec.FileID, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, &rec)
	}
	return recipes, rows.Err()
}
