package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/telemetry"
	"go.uber.org/zap"
)

// FileStoreInterface is the object storage used to archive source files
type FileStoreInterface interface {
	Stat(ctx context.Context, key string) (size int64, found bool, err error)
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// ArchivedFile is one source file after an archive pass.
type ArchivedFile struct {
	FileID   int64
	Name     string
	Key      string
	Uploaded bool
	URL      string
}

// ArchiveService copies stored source files to object storage
type ArchiveService struct {
	fileRepo FileRepositoryInterface
	store    FileStoreInterface
	logger   *zap.Logger
}

// NewArchiveService creates a new ArchiveService instance. store may be nil
// when object storage is not configured.
func NewArchiveService(fileRepo FileRepositoryInterface, store FileStoreInterface, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{fileRepo: fileRepo, store: store, logger: logger}
}

// Archive uploads every source file whose object is missing or has a
// different size. Objects are keyed by content digest, so files already
// archived are left untouched. With links set, each file also gets a
// presigned download URL.
func (s *ArchiveService) Archive(ctx context.Context, links bool) ([]*ArchivedFile, error) {
	if s.store == nil {
		return nil, domain.ErrStorageNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "ArchiveService.Archive", telemetry.SpanAttributes{
		Operation: "archive",
	})
	defer span.End()

	files, err := s.fileRepo.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := make([]*ArchivedFile, 0, len(files))
	for _, f := range files {
		key := f.StorageKey()
		size, found, err := s.store.Stat(ctx, key)
		if err != nil {
			span.SetError(err)
			return out, fmt.Errorf("file %d: %w", f.ID, err)
		}

		archived := &ArchivedFile{FileID: f.ID, Name: f.Name, Key: key}
		if !found || size != int64(len(f.Content)) {
			if err := s.store.PutObject(ctx, key, f.Content, contentType(f.Name)); err != nil {
				span.SetError(err)
				return out, fmt.Errorf("file %d: %w", f.ID, err)
			}
			archived.Uploaded = true
			s.logger.Info("file archived", zap.Int64("file_id", f.ID), zap.String("key", key))
		}

		if links {
			archived.URL, err = s.store.GenerateDownloadURL(ctx, key)
			if err != nil {
				return out, fmt.Errorf("file %d: %w", f.ID, err)
			}
		}
		out = append(out, archived)
	}
	return out, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ris":
		return "application/x-research-info-systems"
	case ".bib":
		return "application/x-bibtex"
	case ".toml":
		return "application/toml"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
