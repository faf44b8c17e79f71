package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show screening progress per recipe",
		Args:  cobra.NoArgs,
		RunE:  withEnv(true, "screenie status", runStatus),
	}
}

type statusOutput struct {
	Studies int64           `json:"studies"`
	Recipes []recipeSummary `json:"recipes"`
}

type recipeSummary struct {
	RecipeID  int64  `json:"recipe_id"`
	File      string `json:"file"`
	Screened  int64  `json:"screened"`
	Pending   int64  `json:"pending"`
	Included  int64  `json:"included"`
	Calls     int64  `json:"calls"`
	TokensIn  int64  `json:"tokens_in"`
	TokensOut int64  `json:"tokens_out"`
}

func runStatus(ctx context.Context, e *env, args []string) error {
	svc := service.NewReportService(repository.NewStudyRepository(e.pool), repository.NewResultRepository(e.pool))
	status, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	out := statusOutput{Studies: status.Studies, Recipes: make([]recipeSummary, 0, len(status.Recipes))}
	for _, r := range status.Recipes {
		out.Recipes = append(out.Recipes, recipeSummary{
			RecipeID:  r.RecipeID,
			File:      r.FileName,
			Screened:  r.Screened,
			Pending:   status.Studies - r.Screened,
			Included:  r.Included,
			Calls:     r.Calls,
			TokensIn:  r.TokensIn,
			TokensOut: r.TokensOut,
		})
	}
	if e.json {
		return cli.PrintJSON(e.out, out)
	}

	fmt.Fprintf(e.out, "%s %d\n", cli.Label("Studies:"), out.Studies)
	if len(out.Recipes) == 0 {
		fmt.Fprintln(e.out, cli.Notice("No recipes have been run yet."))
		return nil
	}

	fmt.Fprintln(e.out)
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECIPE\tFILE\tSCREENED\tPENDING\tINCLUDED\tCALLS\tTOKENS IN/OUT")
	for _, r := range out.Recipes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d/%d\n",
			r.RecipeID, r.File, r.Screened, r.Pending, r.Included, r.Calls, r.TokensIn, r.TokensOut)
	}
	return tw.Flush()
}
