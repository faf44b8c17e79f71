package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/spf13/cobra"
)

// ImportCmd creates the import command.
func ImportCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import studies from a bibliography file",
		Long: `Imports studies from a RIS (.ris) or BibTeX (.bib) file. Entries without a
title or year are reported and skipped. A file is imported at most once.`,
		Args: cobra.NoArgs,
		RunE: withEnv(true, "screenie import", func(ctx context.Context, e *env, args []string) error {
			return runImport(ctx, e, from)
		}),
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Bibliography file to import (.ris or .bib)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

type importOutput struct {
	File     string         `json:"file"`
	FileID   int64          `json:"file_id"`
	Imported int64          `json:"imported"`
	Skipped  []skippedEntry `json:"skipped"`
}

type skippedEntry struct {
	Entry int    `json:"entry"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

func runImport(ctx context.Context, e *env, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	svc := service.NewStudyService(e.txRunner(), repository.NewStudyRepository(e.pool), e.logger)
	result, err := svc.Import(ctx, filepath.Base(path), content)
	if err != nil {
		return err
	}

	out := importOutput{
		File:     path,
		FileID:   result.FileID,
		Imported: result.Imported,
		Skipped:  make([]skippedEntry, 0, len(result.Invalid)),
	}
	for _, inv := range result.Invalid {
		out.Skipped = append(out.Skipped, skippedEntry{Entry: inv.Index + 1, Title: inv.Title, Error: inv.Err.Error()})
	}
	if e.json {
		return cli.PrintJSON(e.out, out)
	}

	fmt.Fprintf(e.out, "%s %d\n", cli.Label("Total entries:"), int(result.Imported)+len(result.Invalid))
	fmt.Fprintln(e.out, cli.Success("Imported %d studies from %s", result.Imported, filepath.Base(path)))
	if len(out.Skipped) > 0 {
		fmt.Fprintln(e.out, cli.Notice("Skipped %d invalid entries:", len(out.Skipped)))
		for _, s := range out.Skipped {
			fmt.Fprintf(e.out, "  entry %d: %s\n", s.Entry, s.Error)
		}
	}
	return nil
}
