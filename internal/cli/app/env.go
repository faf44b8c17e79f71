package app

import (
	"context"
	"fmt"
	"io"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/config"
	"github.com/fdecunta/screenie/internal/database"
	"github.com/fdecunta/screenie/internal/repository"
	"github.com/fdecunta/screenie/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env carries what a command needs once flags and config are resolved.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool
	out     io.Writer
	json    bool
	closers []func()
}

func newEnv(cmd *cobra.Command) (*env, error) {
	databaseURL, _ := cmd.Flags().GetString("database")
	debug, _ := cmd.Flags().GetBool("debug")
	outputJSON, _ := cmd.Flags().GetBool("output")

	cfg, err := config.LoadWith(databaseURL)
	if err != nil {
		return nil, err
	}
	debug = debug || cfg.Debug

	logger, err := cli.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		out:    cmd.OutOrStdout(),
		json:   outputJSON,
	}
	e.closers = append(e.closers, func() { _ = logger.Sync() })

	if cfg.HasSentry() {
		e.initTelemetry(debug)
	}

	return e, nil
}

// initSentry is replaced in tests.
var initSentry = telemetry.Init

// initTelemetry starts Sentry. A failure leaves the command untraced.
func (e *env) initTelemetry(debug bool) {
	// 10% sampling in production, everything elsewhere
	sampleRate := 1.0
	if e.cfg.Environment == "production" {
		sampleRate = 0.1
	}
	shutdown, err := initSentry(telemetry.Config{
		DSN:              e.cfg.SentryDSN,
		Environment:      e.cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            debug,
		Logger:           e.logger,
	})
	if err != nil {
		e.logger.Warn("sentry disabled", zap.Error(err))
		return
	}
	e.closers = append(e.closers, shutdown)
}

// connect opens the database pool.
func (e *env) connect(ctx context.Context) error {
	pool, err := database.NewPool(ctx, database.Config{URL: e.cfg.DatabaseURL, MaxConns: 4})
	if err != nil {
		return err
	}
	e.pool = pool
	e.closers = append(e.closers, pool.Close)
	e.logger.Debug("connected to database")
	return nil
}

func (e *env) txRunner() *repository.TxRunner {
	return repository.NewTxRunner(e.pool)
}

// trace starts the root span of a command. finish records err, if any.
func (e *env) trace(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := telemetry.StartTransaction(ctx, name, "cli.command")
	return ctx, func(err error) {
		if err != nil {
			span.SetError(err)
		}
		span.End()
	}
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// withEnv adapts a command body that needs an env, with or without a
// database connection.
func withEnv(connectDB bool, name string, fn func(ctx context.Context, e *env, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx, finish := e.trace(cmd.Context(), name)
		defer func() { finish(err) }()

		if connectDB {
			if err := e.connect(ctx); err != nil {
				return err
			}
		}
		return fn(ctx, e, args)
	}
}
