package repository

import (
	"context"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LLMCallRepository struct {
	db dbtx
}

func NewLLMCallRepository(pool *pgxpool.Pool) *LLMCallRepository {
	return &LLMCallRepository{db: pool}
}

func NewLLMCallRepositoryWithTx(tx pgx.Tx) *LLMCallRepository {
	return &LLMCallRepository{db: tx}
}

func (r *LLMCallRepository) Create(ctx context.Context, c *domain.LLMCall) error {
	response := c.FullResponse
	if len(response) == 0 {
		response = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO llm_calls (recipe_id, study_id, model, input_tokens, output_tokens, full_response)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.RecipeID, c.StudyID, c.Model, c.InputTokens, c.OutputTokens, string(response),
	).Scan(&c.ID, &c.CreatedAt)
}
