package service

import (
	"context"
	"fmt"

	"github.com/fdecunta/screenie/internal/bibliography"
	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/telemetry"
	"go.uber.org/zap"
)

// ImportResult reports the outcome of importing a bibliography file.
type ImportResult struct {
	FileID   int64
	Imported int64
	Invalid  []*bibliography.EntryError
}

// StudyService handles importing and counting studies
type StudyService struct {
	txRunner  TxRunner
	studyRepo StudyRepositoryInterface
	logger    *zap.Logger
}

// NewStudyService creates a new StudyService instance
func NewStudyService(txRunner TxRunner, studyRepo StudyRepositoryInterface, logger *zap.Logger) *StudyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyService{
		txRunner:  txRunner,
		studyRepo: studyRepo,
		logger:    logger,
	}
}

// Import parses a RIS or BibTeX file and stores its valid entries as
// studies linked to the stored file. Entries missing a title or year are
// reported in the result and skipped. Importing the same bytes twice fails
// with domain.ErrFileAlreadyImported.
func (s *StudyService) Import(ctx context.Context, filename string, content []byte) (*ImportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "StudyService.Import", telemetry.SpanAttributes{
		Operation: "import",
	})
	defer span.End()

	studies, invalid, err := bibliography.Parse(filename, content)
	if err != nil {
		return nil, err
	}
	if len(studies) == 0 {
		return nil, fmt.Errorf("%w: %s contains no importable entries", domain.ErrInvalidStudy, filename)
	}

	result := &ImportResult{Invalid: invalid}
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		file := domain.NewSourceFile(filename, content)
		created, err := repos.Files().GetOrCreate(ctx, file)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("%w: %s matches file %d (%s)", domain.ErrFileAlreadyImported, filename, file.ID, file.Name)
		}

		for _, st := range studies {
			st.FileID = file.ID
		}
		n, err := repos.Studies().CreateBatch(ctx, studies)
		if err != nil {
			return err
		}

		result.FileID = file.ID
		result.Imported = n
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	for _, e := range invalid {
		s.logger.Warn("skipped bibliography entry", zap.Int("index", e.Index), zap.String("title", e.Title), zap.Error(e.Err))
	}
	s.logger.Info("studies imported",
		zap.String("file", filename),
		zap.Int64("file_id", result.FileID),
		zap.Int64("imported", result.Imported),
		zap.Int("skipped", len(invalid)),
	)
	return result, nil
}

// Count returns the number of stored studies.
func (s *StudyService) Count(ctx context.Context) (int64, error) {
	return s.studyRepo.Count(ctx)
}
