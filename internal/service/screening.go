package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/llm"
	"github.com/fdecunta/screenie/internal/prompt"
	"github.com/fdecunta/screenie/internal/recipe"
	"github.com/fdecunta/screenie/internal/telemetry"
	"github.com/fdecunta/screenie/internal/verdict"
	"go.uber.org/zap"
)

// GatewayFactory builds the model gateway for a recipe's model block. It
// resolves credentials and fails with a configuration error before any
// network call is made.
type GatewayFactory func(ctx context.Context, model recipe.Model) (llm.Gateway, error)

// RunInput describes one screening run.
type RunInput struct {
	RecipeFile    string
	RecipeContent []byte
	Limit         int
	// OnScreened, if set, is called after each study commits.
	OnScreened func(ScreenedStudy)
}

// ScreenedStudy is the committed outcome for one study.
type ScreenedStudy struct {
	StudyID int64
	CallID  int64
	Verdict domain.Verdict
	Reason  string
}

// RunReport summarizes a screening run. On an aborted run it holds the
// studies committed before the failure.
type RunReport struct {
	RunID     string
	RecipeID  int64
	Requested int
	Selected  []int64
	Screened  []ScreenedStudy
	Skipped   []int64
}

// Short reports whether fewer studies were pending than requested. This is
// the normal end of a screening, not an error.
func (r *RunReport) Short() bool {
	return len(r.Selected) < r.Requested
}

// PromptPreview is a compiled prompt for one pending study.
type PromptPreview struct {
	StudyID int64
	Prompt  string
}

// ScreeningService runs recipes over pending studies
type ScreeningService struct {
	registry  *RecipeRegistry
	txRunner  TxRunner
	studyRepo StudyRepositoryInterface
	gateways  GatewayFactory
	uuidGen   UUIDGenerator
	logger    *zap.Logger
}

// NewScreeningService creates a new ScreeningService instance
func NewScreeningService(
	registry *RecipeRegistry,
	txRunner TxRunner,
	studyRepo StudyRepositoryInterface,
	gateways GatewayFactory,
	logger *zap.Logger,
) *ScreeningService {
	return NewScreeningServiceWithUUIDGen(registry, txRunner, studyRepo, gateways, logger, &DefaultUUIDGenerator{})
}

// NewScreeningServiceWithUUIDGen creates a new ScreeningService with custom UUID generator (for testing)
func NewScreeningServiceWithUUIDGen(
	registry *RecipeRegistry,
	txRunner TxRunner,
	studyRepo StudyRepositoryInterface,
	gateways GatewayFactory,
	logger *zap.Logger,
	uuidGen UUIDGenerator,
) *ScreeningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreeningService{
		registry:  registry,
		txRunner:  txRunner,
		studyRepo: studyRepo,
		gateways:  gateways,
		uuidGen:   uuidGen,
		logger:    logger,
	}
}

// Run screens up to in.Limit pending studies with the recipe, one at a time
// in ascending study id order. Each study commits independently, so an
// aborted run keeps everything committed before the failure and a rerun
// resumes with the remaining studies.
//
// A gateway error aborts the run. A response that cannot be parsed is logged
// as a model call and then aborts the run. A study that already has a result
// for the recipe is skipped.
func (s *ScreeningService) Run(ctx context.Context, in RunInput) (*RunReport, error) {
	if in.Limit < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidLimit, in.Limit)
	}

	cfg, err := ParseRecipe(in.RecipeFile, in.RecipeContent)
	if err != nil {
		return nil, err
	}
	gateway, err := s.gateways(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	reg, err := s.registry.RegisterOrReuse(ctx, in.RecipeFile, in.RecipeContent)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     s.uuidGen.NewString(),
		RecipeID:  reg.Recipe.ID,
		Requested: in.Limit,
	}
	logger := s.logger.With(zap.String("run_id", report.RunID), zap.Int64("recipe_id", report.RecipeID))

	ctx, span := telemetry.StartSpan(ctx, "ScreeningService.Run", telemetry.SpanAttributes{
		RunID:     report.RunID,
		RecipeID:  report.RecipeID,
		Operation: "screen",
	})
	defer span.End()

	report.Selected, err = s.studyRepo.ListPending(ctx, reg.Recipe.ID, in.Limit)
	if err != nil {
		span.SetError(err)
		return report, err
	}
	logger.Info("screening started",
		zap.String("model", cfg.Model.Name),
		zap.Int("requested", in.Limit),
		zap.Int("pending", len(report.Selected)),
	)

	for _, studyID := range report.Selected {
		outcome, err := s.screenStudy(ctx, gateway, reg, report.RunID, studyID)
		if err != nil {
			span.SetError(err)
			logger.Error("screening aborted", zap.Int64("study_id", studyID), zap.Error(err))
			return report, err
		}
		if outcome == nil {
			report.Skipped = append(report.Skipped, studyID)
			telemetry.StudyBreadcrumb(ctx, studyID, "already screened")
			logger.Info("study already screened", zap.Int64("study_id", studyID))
			continue
		}
		report.Screened = append(report.Screened, *outcome)
		telemetry.StudyBreadcrumb(ctx, studyID, outcome.Verdict.String())
		if in.OnScreened != nil {
			in.OnScreened(*outcome)
		}
		logger.Debug("study screened",
			zap.Int64("study_id", studyID),
			zap.Int64("call_id", outcome.CallID),
			zap.Stringer("verdict", outcome.Verdict),
		)
	}

	logger.Info("screening finished",
		zap.Int("screened", len(report.Screened)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("short", report.Short()),
	)
	return report, nil
}

// screenStudy runs one study through fetch, compile, call, log, parse and
// persist. The call record and the result commit together; when the
// response is empty or cannot be parsed the call record still commits. A nil
// outcome with a nil error means the study already had a result.
func (s *ScreeningService) screenStudy(
	ctx context.Context,
	gateway llm.Gateway,
	reg *RegisteredRecipe,
	runID string,
	studyID int64,
) (*ScreenedStudy, error) {
	ctx, span := telemetry.StartSpan(ctx, "ScreeningService.screenStudy", telemetry.SpanAttributes{
		RunID:     runID,
		RecipeID:  reg.Recipe.ID,
		StudyID:   studyID,
		Operation: "screen_study",
	})
	defer span.End()

	study, err := s.studyRepo.GetByID(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("study %d: %w", studyID, err)
	}

	text, err := prompt.Compile(reg.Config, study)
	if err != nil {
		return nil, fmt.Errorf("study %d: %w", studyID, err)
	}

	resp, err := gateway.Complete(ctx, llm.Request{
		Model:    reg.Config.Model,
		Messages: llm.UserMessage(text),
	})
	if err != nil {
		return nil, fmt.Errorf("study %d, recipe %d: %w", studyID, reg.Recipe.ID, err)
	}

	var outcome *ScreenedStudy
	var parseErr error
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		call := &domain.LLMCall{
			RecipeID:     reg.Recipe.ID,
			StudyID:      studyID,
			Model:        resp.Model,
			InputTokens:  resp.PromptTokens,
			OutputTokens: resp.CompletionTokens,
			FullResponse: resp.Raw,
		}
		if call.Model == "" {
			call.Model = reg.Config.Model.Name
		}
		if err := repos.LLMCalls().Create(ctx, call); err != nil {
			return err
		}

		if strings.TrimSpace(resp.Text) == "" {
			parseErr = domain.ErrEmptyCompletion
			return nil
		}
		out, err := verdict.Parse(resp.Text)
		if err != nil {
			parseErr = err
			return nil
		}

		result := &domain.ScreeningResult{
			RecipeID: reg.Recipe.ID,
			StudyID:  studyID,
			CallID:   call.ID,
			Verdict:  out.Verdict,
			Reason:   out.Reason,
		}
		if err := repos.Results().Create(ctx, result); err != nil {
			if errors.Is(err, domain.ErrResultAlreadyExists) {
				return nil
			}
			return err
		}

		outcome = &ScreenedStudy{
			StudyID: studyID,
			CallID:  call.ID,
			Verdict: out.Verdict,
			Reason:  out.Reason,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("study %d, recipe %d: %w", studyID, reg.Recipe.ID, err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("study %d, recipe %d: %w", studyID, reg.Recipe.ID, parseErr)
	}
	return outcome, nil
}

// Preview compiles the prompts the next run would send, without calling a
// model or writing anything. An unregistered recipe previews the first
// studies in id order.
func (s *ScreeningService) Preview(ctx context.Context, in RunInput) ([]PromptPreview, error) {
	if in.Limit < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidLimit, in.Limit)
	}

	reg, err := s.registry.Lookup(ctx, in.RecipeFile, in.RecipeContent)
	var recipeID int64
	switch {
	case err == nil:
		recipeID = reg.Recipe.ID
	case errors.Is(err, domain.ErrRecipeNotFound):
		cfg, perr := ParseRecipe(in.RecipeFile, in.RecipeContent)
		if perr != nil {
			return nil, perr
		}
		reg = &RegisteredRecipe{Config: cfg}
	default:
		return nil, err
	}

	ids, err := s.studyRepo.ListPending(ctx, recipeID, in.Limit)
	if err != nil {
		return nil, err
	}

	previews := make([]PromptPreview, 0, len(ids))
	for _, id := range ids {
		study, err := s.studyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("study %d: %w", id, err)
		}
		text, err := prompt.Compile(reg.Config, study)
		if err != nil {
			return nil, fmt.Errorf("study %d: %w", id, err)
		}
		previews = append(previews, PromptPreview{StudyID: id, Prompt: text})
	}
	return previews, nil
}
