package repository

import (
	"context"
	"errors"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StudyRepository struct {
	db dbtx
}

func NewStudyRepository(pool *pgxpool.Pool) *StudyRepository {
	return &StudyRepository{db: pool}
}

func NewStudyRepositoryWithTx(tx pgx.Tx) *StudyRepository {
	return &StudyRepository{db: tx}
}

var studyColumns = []string{"file_id", "title", "authors", "year", "abstract", "journal", "url", "doi"}

// CreateBatch bulk-inserts studies with COPY.
func (r *StudyRepository) CreateBatch(ctx context.Context, studies []*domain.Study) (int64, error) {
	if len(studies) == 0 {
		return 0, nil
	}

	return r.db.CopyFrom(ctx,
		pgx.Identifier{"studies"},
		studyColumns,
		pgx.CopyFromSlice(len(studies), func(i int) ([]any, error) {
			s := studies[i]
			return []any{s.FileID, s.Title, s.Authors, s.Year, s.Abstract, s.Journal, s.URL, nullableString(s.DOI)}, nil
		}),
	)
}

func (r *StudyRepository) GetByID(ctx context.Context, id int64) (*domain.Study, error) {
	var s domain.Study
	var doi *string
	err := r.db.QueryRow(ctx,
		`SELECT id, file_id, title, authors, year, abstract, journal, url, doi, created_at
		 FROM studies WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.FileID, &s.Title, &s.Authors, &s.Year, &s.Abstract, &s.Journal, &s.URL, &doi, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStudyNotFound
		}
		return nil, err
	}
	if doi != nil {
		s.DOI = *doi
	}
	return &s, nil
}

func (r *StudyRepository) ListPending(ctx context.Context, recipeID int64, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id
		 FROM studies s
		 WHERE NOT EXISTS (
		     SELECT 1 FROM results r
		     WHERE r.study_id = s.id AND r.recipe_id = $1
		 )
		 ORDER BY s.id
		 LIMIT $2`,
		recipeID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *StudyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM studies`).Scan(&n)
	return n, err
}
