package repository

import (
	"context"
	"errors"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResultRepository struct {
	db dbtx
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: pool}
}

func NewResultRepositoryWithTx(tx pgx.Tx) *ResultRepository {
	return &ResultRepository{db: tx}
}

// Create inserts the result unless the (recipe, study) pair already has one.
// The conflict clause keeps the surrounding transaction usable.
func (r *ResultRepository) Create(ctx context.Context, res *domain.ScreeningResult) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO results (recipe_id, study_id, call_id, verdict, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (recipe_id, study_id) DO NOTHING
		 RETURNING id, created_at`,
		res.RecipeID, res.StudyID, res.CallID, int(res.Verdict), res.Reason,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrResultAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ResultRepository) ListForExport(ctx context.Context, recipeID int64) ([]*service.ExportRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.file_id, s.title, s.authors, s.year, s.abstract, s.journal, s.url, s.doi, s.created_at,
		        r.verdict, r.reason
		 FROM studies s
		 LEFT JOIN results r ON r.study_id = s.id AND r.recipe_id = $1
		 ORDER BY s.id`,
		recipeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*service.ExportRow
	for rows.Next() {
		var row service.ExportRow
		var doi, reason *string
		var verdict *int16
		s := &row.Study
		if err := rows.Scan(&s.ID, &s.FileID, &s.Title, &s.Authors, &s.Year, &s.Abstract, &s.Journal, &s.URL, &doi, &s.CreatedAt, &verdict, &reason); err != nil {
			return nil, err
		}
		if doi != nil {
			s.DOI = *doi
		}
		if verdict != nil {
			v := domain.Verdict(*verdict)
			row.Verdict = &v
		}
		if reason != nil {
			row.Reason = *reason
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *ResultRepository) Summaries(ctx context.Context) ([]*service.RecipeSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rc.id, f.name,
		        (SELECT COUNT(*) FROM results r WHERE r.recipe_id = rc.id),
		        (SELECT COUNT(*) FROM results r WHERE r.recipe_id = rc.id AND r.verdict = 1),
		        COUNT(c.id),
		        COALESCE(SUM(c.input_tokens), 0),
		        COALESCE(SUM(c.output_tokens), 0)
		 FROM recipes rc
		 INNER JOIN files f ON f.id = rc.file_id
		 LEFT JOIN llm_calls c ON c.recipe_id = rc.id
		 GROUP BY rc.id, f.name
		 ORDER BY rc.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*service.RecipeSummary
	for rows.Next() {
		var s service.RecipeSummary
		if err := rows.Scan(&s.RecipeID, &s.FileName, &s.Screened, &s.Included, &s.Calls, &s.TokensIn, &s.TokensOut); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
