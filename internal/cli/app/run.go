package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/config"
	"github.com/fdecunta/screenie/internal/llm"
	"github.com/fdecunta/screenie/internal/recipe"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/service"
	"github.com/spf13/cobra"
)

// RunCmd creates the run command.
func RunCmd() *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run RECIPE",
		Short: "Screen pending studies with a recipe",
		Long: `Screens up to --limit studies that have no result for the recipe yet, in
study id order. Each study is committed as soon as it is screened, so an
interrupted run resumes where it stopped.

With --dry-run the compiled prompts are printed and no model is called.`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(true, "screenie run", func(ctx context.Context, e *env, args []string) error {
			return runScreening(ctx, e, args[0], limit, dryRun)
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 1, "Maximum number of studies to screen in this run")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the prompts without calling the model or saving results")

	return cmd
}

// gatewayFactory resolves credentials for the recipe's model and builds its
// gateway.
func gatewayFactory(creds *config.Credentials) service.GatewayFactory {
	return func(ctx context.Context, model recipe.Model) (llm.Gateway, error) {
		c, err := creds.For(model)
		if err != nil {
			return nil, err
		}
		return llm.New(ctx, model, c)
	}
}

func newScreeningService(e *env) (*service.ScreeningService, error) {
	path, err := e.cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	creds, err := config.LoadCredentials(path)
	if err != nil {
		return nil, err
	}

	txRunner := e.txRunner()
	return service.NewScreeningService(
		service.NewRecipeRegistry(txRunner, e.logger),
		txRunner,
		repository.NewStudyRepository(e.pool),
		gatewayFactory(creds),
		e.logger,
	), nil
}

func runScreening(ctx context.Context, e *env, recipePath string, limit int, dryRun bool) error {
	content, err := os.ReadFile(recipePath)
	if err != nil {
		return fmt.Errorf("failed to read recipe: %w", err)
	}

	svc, err := newScreeningService(e)
	if err != nil {
		return err
	}

	in := service.RunInput{
		RecipeFile:    filepath.Base(recipePath),
		RecipeContent: content,
		Limit:         limit,
	}

	if dryRun {
		previews, err := svc.Preview(ctx, in)
		if err != nil {
			return err
		}
		return printPreviews(e, previews)
	}

	if !e.json {
		in.OnScreened = func(s service.ScreenedStudy) {
			printScreened(e.out, s)
		}
	}

	report, runErr := svc.Run(ctx, in)
	if report == nil {
		return runErr
	}
	if e.json {
		if err := cli.PrintJSON(e.out, newRunOutput(report, runErr)); err != nil {
			return err
		}
		return runErr
	}

	printRunSummary(e.out, report, runErr)
	return runErr
}

type runOutput struct {
	RunID     string         `json:"run_id"`
	RecipeID  int64          `json:"recipe_id"`
	Requested int            `json:"requested"`
	Selected  []int64        `json:"selected"`
	Screened  []screenedJSON `json:"screened"`
	Skipped   []int64        `json:"skipped"`
	Short     bool           `json:"short"`
	Error     string         `json:"error,omitempty"`
}

type screenedJSON struct {
	StudyID int64  `json:"study_id"`
	CallID  int64  `json:"call_id"`
	Verdict int    `json:"verdict"`
	Reason  string `json:"reason"`
}

func newRunOutput(r *service.RunReport, runErr error) runOutput {
	out := runOutput{
		RunID:     r.RunID,
		RecipeID:  r.RecipeID,
		Requested: r.Requested,
		Selected:  r.Selected,
		Screened:  make([]screenedJSON, 0, len(r.Screened)),
		Skipped:   r.Skipped,
		Short:     r.Short(),
	}
	if out.Selected == nil {
		out.Selected = []int64{}
	}
	if out.Skipped == nil {
		out.Skipped = []int64{}
	}
	for _, s := range r.Screened {
		out.Screened = append(out.Screened, screenedJSON{
			StudyID: s.StudyID,
			CallID:  s.CallID,
			Verdict: int(s.Verdict),
			Reason:  s.Reason,
		})
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out
}

func printScreened(w io.Writer, s service.ScreenedStudy) {
	fmt.Fprintf(w, "%s %-7s %s\n", cli.Label(fmt.Sprintf("study %d", s.StudyID)), s.Verdict, s.Reason)
}

func printRunSummary(w io.Writer, r *service.RunReport, runErr error) {
	if len(r.Selected) == 0 {
		fmt.Fprintln(w, cli.Notice("All studies have been screened with recipe %d. No pending studies found.", r.RecipeID))
		return
	}
	if r.Short() {
		fmt.Fprintln(w, cli.Notice("Note: only %d studies pending (requested %d)", len(r.Selected), r.Requested))
	}
	for _, id := range r.Skipped {
		fmt.Fprintf(w, "%s already screened, skipped\n", cli.Label(fmt.Sprintf("study %d", id)))
	}
	if runErr != nil {
		fmt.Fprintf(w, "Run %s stopped after %d of %d studies\n", r.RunID, len(r.Screened), len(r.Selected))
		return
	}
	fmt.Fprintln(w, cli.Success("Screened %d studies with recipe %d", len(r.Screened), r.RecipeID))
}

type previewJSON struct {
	StudyID int64  `json:"study_id"`
	Prompt  string `json:"prompt"`
}

func printPreviews(e *env, previews []service.PromptPreview) error {
	if e.json {
		out := make([]previewJSON, 0, len(previews))
		for _, p := range previews {
			out = append(out, previewJSON{StudyID: p.StudyID, Prompt: p.Prompt})
		}
		return cli.PrintJSON(e.out, out)
	}

	if len(previews) == 0 {
		fmt.Fprintln(e.out, cli.Notice("No pending studies."))
		return nil
	}
	for i, p := range previews {
		if i > 0 {
			fmt.Fprintln(e.out, strings.Repeat("-", 40))
		}
		fmt.Fprintln(e.out, cli.Header(fmt.Sprintf("Study %d", p.StudyID)))
		fmt.Fprintln(e.out, p.Prompt)
	}
	fmt.Fprintln(e.out, cli.Notice("Dry run: %d prompts compiled, nothing sent or saved.", len(previews)))
	return nil
}
