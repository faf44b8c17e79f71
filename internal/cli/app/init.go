package app

import (
	"context"
	"fmt"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/config"
	"github.com/fdecunta/screenie/internal/database"
	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Prepare the database and credentials file",
		Long: `Applies pending database migrations and writes a commented credentials
template when no credentials file exists. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: withEnv(false, "screenie init", runInit),
	}
}

type initOutput struct {
	SchemaVersion      uint   `json:"schema_version"`
	CredentialsFile    string `json:"credentials_file"`
	CredentialsCreated bool   `json:"credentials_created"`
	Models             int    `json:"models"`
}

func runInit(ctx context.Context, e *env, args []string) error {
	version, err := database.Migrate(e.cfg.DatabaseURL, e.logger)
	if err != nil {
		return err
	}

	path, err := e.cfg.CredentialsPath()
	if err != nil {
		return err
	}
	created, err := config.WriteCredentialsTemplate(path)
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials(path)
	if err != nil {
		return err
	}

	out := initOutput{
		SchemaVersion:      version,
		CredentialsFile:    path,
		CredentialsCreated: created,
		Models:             len(creds.Models()),
	}
	if e.json {
		return cli.PrintJSON(e.out, out)
	}

	fmt.Fprintln(e.out, cli.Success("Database ready (schema version %d)", version))
	if created {
		fmt.Fprintf(e.out, "Credentials template written to %s\n", path)
	} else {
		fmt.Fprintf(e.out, "Credentials: %s (%d models)\n", path, out.Models)
	}
	return nil
}
