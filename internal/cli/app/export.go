package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/spf13/cobra"
)

// ExportCmd creates the export command.
func ExportCmd() *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export RECIPE",
		Short: "Export studies with their results for a recipe",
		Long: `Writes every study with the verdict and reason given under the recipe.
Studies not screened yet have empty verdict and reason. The recipe must have
been run at least once.`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(true, "screenie export", func(ctx context.Context, e *env, args []string) error {
			return runExport(ctx, e, args[0], format, outPath)
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format (csv|json)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "File to write (default: stdout)")

	return cmd
}

func runExport(ctx context.Context, e *env, recipePath, format, outPath string) (err error) {
	content, err := os.ReadFile(recipePath)
	if err != nil {
		return fmt.Errorf("failed to read recipe: %w", err)
	}

	registry := service.NewRecipeRegistry(e.txRunner(), e.logger)
	reg, err := registry.Lookup(ctx, filepath.Base(recipePath), content)
	if err != nil {
		return err
	}

	w := e.out
	if outPath != "" {
		f, cerr := os.Create(outPath)
		if cerr != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	svc := service.NewReportService(repository.NewStudyRepository(e.pool), repository.NewResultRepository(e.pool))
	n, err := svc.Export(ctx, w, reg.Recipe.ID, service.ExportFormat(strings.ToLower(format)))
	if err != nil {
		return err
	}

	if outPath != "" {
		fmt.Fprintln(e.out, cli.Success("Exported %d studies to %s", n, outPath))
	}
	return nil
}
