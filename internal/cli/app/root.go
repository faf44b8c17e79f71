// Package app implements the screenie commands.
package app

import (
	"github.com/fdecunta/screenie/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the screenie command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "screenie",
		Short: "LLM-assisted screening for systematic reviews",
		Long: `Screenie imports bibliographic studies and screens them with a language
model, driven by recipe files. Runs are resumable: each study commits on its
own and is never screened twice with the same recipe.

Environment variables:
  SCREENIE_DATABASE_URL      PostgreSQL connection URL (required unless --database)
  SCREENIE_CREDENTIALS_FILE  Model credentials file (default: user config dir)
  SCREENIE_DEBUG             Enable debug logging
  SCREENIE_SENTRY_DSN        Sentry DSN for tracing
  SCREENIE_S3_ENDPOINT       S3-compatible endpoint for archive`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("database", "", "PostgreSQL URL (overrides SCREENIE_DATABASE_URL)")
	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(ImportCmd())
	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(StatusCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(ArchiveCmd())

	return rootCmd
}
