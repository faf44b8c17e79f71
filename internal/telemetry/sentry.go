// Package telemetry traces screenie commands with Sentry.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serverName = "screenie"
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
	Logger           *zap.Logger
}

// Init initializes Sentry with tracing enabled.
// Returns a shutdown function to flush pending events.
// If DSN is empty, returns a no-op shutdown function.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0 // Default to sampling all traces
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serverName,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			// child spans follow the parent's sampling decision
			var emptySpanID sentry.SpanID
			if ctx.Span.ParentSpanID != emptySpanID {
				if ctx.Span.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		}),
	})
	if err != nil {
		logger.Warn("sentry: failed to initialize, continuing without tracing", zap.Error(err))
		return func() {}, nil
	}

	shutdown := func() {
		sentry.Flush(5 * time.Second)
	}

	logger.Debug("sentry: tracing initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.TracesSampleRate),
	)
	return shutdown, nil
}

// SpanAttributes tags a span with the screening it belongs to. Zero values
// are left out.
type SpanAttributes struct {
	RunID     string
	RecipeID  int64
	StudyID   int64
	Operation string
}

// Span wraps sentry.Span. The zero value is a no-op.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span as failed and tags it with the error code. Only
// gateway and internal failures are reported as Sentry events; validation,
// configuration and malformed output errors are the user's to fix.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}

	code := domain.CodeOf(err)
	s.inner.Status = spanStatus(code)
	s.inner.SetTag("error_code", code)

	if code != domain.ErrCodeGateway && code != domain.ErrCodeInternalError {
		return
	}
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func spanStatus(code string) sentry.SpanStatus {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeMalformedOutput:
		return sentry.SpanStatusInvalidArgument
	case domain.ErrCodeNotFound:
		return sentry.SpanStatusNotFound
	case domain.ErrCodeAlreadyExists:
		return sentry.SpanStatusAlreadyExists
	case domain.ErrCodeConflict, domain.ErrCodeConfiguration:
		return sentry.SpanStatusFailedPrecondition
	case domain.ErrCodeGateway:
		return sentry.SpanStatusUnavailable
	}
	return sentry.SpanStatusInternalError
}

func setAttributes(span *sentry.Span, attrs SpanAttributes) {
	if span == nil {
		return
	}

	if attrs.RunID != "" {
		span.SetTag("run_id", attrs.RunID)
	}
	if attrs.RecipeID != 0 {
		span.SetTag("recipe_id", strconv.FormatInt(attrs.RecipeID, 10))
	}
	if attrs.StudyID != 0 {
		span.SetTag("study_id", strconv.FormatInt(attrs.StudyID, 10))
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	setAttributes(span, attrs)

	return span.Context(), &Span{inner: span}
}

// StartTransaction starts the root span of a command.
func StartTransaction(ctx context.Context, name string, op string) (context.Context, *Span) {
	options := []sentry.SpanOption{
		sentry.WithTransactionName(name),
	}
	if op != "" {
		options = append(options, sentry.WithOpName(op))
	}

	span := sentry.StartSpan(ctx, op, options...)
	return span.Context(), &Span{inner: span}
}

// StudyBreadcrumb records what happened to a study, so an event reported
// later in the run shows the studies screened before it.
func StudyBreadcrumb(ctx context.Context, studyID int64, outcome string) {
	breadcrumb := &sentry.Breadcrumb{
		Type:      "default",
		Category:  "screening",
		Message:   fmt.Sprintf("study %d: %s", studyID, outcome),
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(breadcrumb, nil)
	} else {
		sentry.AddBreadcrumb(breadcrumb)
	}
}
