package app

import (
	"context"
	"fmt"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/fdecunta/screenie/internal/storage"
	"github.com/spf13/cobra"
)

// ArchiveCmd creates the archive command.
func ArchiveCmd() *cobra.Command {
	var links bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Copy imported and recipe files to object storage",
		Long: `Uploads every stored source file to the S3-compatible bucket configured
with SCREENIE_S3_*. Objects are keyed by content digest; files already
archived are skipped.`,
		Args: cobra.NoArgs,
		RunE: withEnv(true, "screenie archive", func(ctx context.Context, e *env, args []string) error {
			return runArchive(ctx, e, links)
		}),
	}

	cmd.Flags().BoolVar(&links, "links", false, "Print presigned download URLs")

	return cmd
}

func newFileStore(ctx context.Context, e *env) (*storage.S3Client, error) {
	if !e.cfg.HasS3() {
		return nil, fmt.Errorf("%w: set SCREENIE_S3_ENDPOINT, SCREENIE_S3_ACCESS_KEY_ID and SCREENIE_S3_SECRET_ACCESS_KEY", domain.ErrStorageNotConfigured)
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        e.cfg.S3Endpoint,
		Region:          e.cfg.S3Region,
		AccessKeyID:     e.cfg.S3AccessKey,
		SecretAccessKey: e.cfg.S3SecretKey,
		Bucket:          e.cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	e.logger.Debug("bucket ready")
	return client, nil
}

type archiveOutput struct {
	FileID   int64  `json:"file_id"`
	Name     string `json:"name"`
	Key      string `json:"key"`
	Uploaded bool   `json:"uploaded"`
	URL      string `json:"url,omitempty"`
}

func runArchive(ctx context.Context, e *env, links bool) error {
	store, err := newFileStore(ctx, e)
	if err != nil {
		return err
	}

	svc := service.NewArchiveService(repository.NewFileRepository(e.pool), store, e.logger)
	archived, err := svc.Archive(ctx, links)
	if err != nil {
		return err
	}

	if e.json {
		out := make([]archiveOutput, 0, len(archived))
		for _, a := range archived {
			out = append(out, archiveOutput{FileID: a.FileID, Name: a.Name, Key: a.Key, Uploaded: a.Uploaded, URL: a.URL})
		}
		return cli.PrintJSON(e.out, out)
	}

	uploaded := 0
	for _, a := range archived {
		state := "kept"
		if a.Uploaded {
			state = "uploaded"
			uploaded++
		}
		fmt.Fprintf(e.out, "%-8s %s %s\n", state, a.Name, cli.Label(a.Key))
		if a.URL != "" {
			fmt.Fprintf(e.out, "         %s\n", a.URL)
		}
	}
	fmt.Fprintln(e.out, cli.Success("Archived %d files (%d uploaded) to %s", len(archived), uploaded, e.cfg.S3Bucket))
	return nil
}
