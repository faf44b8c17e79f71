package repository

import (
	"context"
	"errors"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FileRepository struct {
	db dbtx
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: pool}
}

func NewFileRepositoryWithTx(tx pgx.Tx) *FileRepository {
	return &FileRepository{db: tx}
}

func (r *FileRepository) GetOrCreate(ctx context.Context, f *domain.SourceFile) (bool, error) {
	if f.SHA256 == "" {
		f.SHA256 = domain.ContentDigest(f.Content)
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO files (name, sha256, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (sha256) DO NOTHING
		 RETURNING id, created_at`,
		f.Name, f.SHA256, f.Content,
	).Scan(&f.ID, &f.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	existing, err := r.GetByContent(ctx, f.Content)
	if err != nil {
		return false, err
	}
	*f = *existing
	return false, nil
}

func (r *FileRepository) GetByContent(ctx context.Context, content []byte) (*domain.SourceFile, error) {
	var f domain.SourceFile
	err := r.db.QueryRow(ctx,
		`SELECT id, name, sha256, content, created_at
		 FROM files WHERE sha256 = $1 AND content = $2`,
		domain.ContentDigest(content), content,
	).Scan(&f.ID, &f.Name, &f.SHA256, &f.Content, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FileRepository) List(ctx context.Context) ([]*domain.SourceFile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, sha256, content, created_at FROM files ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*domain.SourceFile
	for rows.Next() {
		var f domain.SourceFile
		if err := rows.Scan(&f.ID, &f.Name, &f.SHA256, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}
