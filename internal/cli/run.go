package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/config"
	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// retryInitialInterval is the first wait after a 429.
const retryInitialInterval = 500 * time.Millisecond

// SystemsFunc builds the source and destination a run talks to.
type SystemsFunc func(cfg config.Config, logger *slog.Logger) (engine.Source, engine.Destination, error)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Country    string
	Type       int
	DryRun     bool
	Database   string
	TablesDir  string
	ConfigFile string

	// Systems allows overriding the upstream clients (for testing).
	// If nil, defaults to HTTP clients built from the configuration.
	Systems SystemsFunc

	// Clock and RunIDs allow pinning time and run ids (for testing).
	Clock  engine.Clock
	RunIDs engine.RunIDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Reports []*engine.Report `json:"reports"`
	Errors  []string         `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one synchronization",
		Long: `Run one synchronization for a country and run type.

Run types:
  1  push display ids back to the source system
  2  absence corrections (deletes and updates, no creates)
  3  personal records, new starters and reactivations
  4  job lines
  5  absences, including creates and day expansion

With --country all, usa runs first, then can. Every operation is recorded
in the ledger; --dry-run records the plan without writing to either system.

Example:
  hrsync run --country usa --type 3 --dry-run
  hrsync run --country all --type 5 --config ./hrsync.yaml --db ./hrsync.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Country, "country", "", "country to run: usa, can or all (required)")
	_ = cmd.MarkFlagRequired("country")
	cmd.Flags().IntVar(&opts.Type, "type", 0, "run type 1-5 (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "plan and record without writing")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite ledger (overrides HRSYNC_DB)")
	cmd.Flags().StringVar(&opts.TablesDir, "tables", "", "lookup tables directory (overrides HRSYNC_TABLES_DIR)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML config file layered over the environment")

	return cmd
}

func runSync(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	countries, err := parseCountries(opts.Country)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "invalid --country", err)
	}
	rt, err := engine.ParseRunType(opts.Type)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "invalid --type", err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}

	logger.Info("loading tables", "dir", cfg.TablesDir)
	loadResult, loadErrors := LoadTables(cfg.TablesDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return formatter.fail(ExitCommandError, loadErrorCode(loadErrors[0]), "failed to load tables", loadErrors[0])
	}
	for _, w := range loadResult.Warnings {
		logger.Warn("table check", "path", w.Path, "message", w.Message)
	}

	systems := opts.Systems
	if systems == nil {
		systems = newHTTPSystems
	}
	src, dst, err := systems(cfg, logger)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "failed to create clients", err)
	}

	logger.Info("opening ledger", "path", cfg.DatabasePath)
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDBFailed, "failed to open ledger", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithDryRun(opts.DryRun),
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}
	eng := engine.New(cfg, src, dst, loadResult.Tables, st, engineOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	result := RunResult{Reports: []*engine.Report{}}
	var runErrs []error
	for _, c := range countries {
		report, err := eng.Run(ctx, c, rt)
		if report != nil {
			result.Reports = append(result.Reports, report)
		}
		if err != nil {
			runErrs = append(runErrs, fmt.Errorf("%s: %w", c, err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c, err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err := outputRun(formatter, result); err != nil {
		return err
	}
	if len(runErrs) > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s: %d run(s) failed", ErrCodeRunFailed, len(runErrs)), errors.Join(runErrs...))
	}
	return nil
}

// parseCountries expands --country; "all" is every country in ir.Countries
// order.
func parseCountries(s string) ([]ir.Country, error) {
	if s == "all" {
		return append([]ir.Country{}, ir.Countries...), nil
	}
	c, err := ir.ParseCountry(s)
	if err != nil {
		return nil, err
	}
	return []ir.Country{c}, nil
}

// loadConfig reads the environment (and --config), then applies flags.
func loadConfig(opts *RunOptions) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}
	if opts.TablesDir != "" {
		cfg.TablesDir = opts.TablesDir
	}
	return cfg, nil
}

// newHTTPSystems builds the real clients. Both share one timeout but have
// their own rate limits.
func newHTTPSystems(cfg config.Config, logger *slog.Logger) (engine.Source, engine.Destination, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	src, err := client.NewSourceClient(cfg.SourceBaseURL, cfg.SourceToken,
		client.WithHTTPClient(httpClient),
		client.WithLogger(logger.With("system", "source")),
		client.WithRateLimit(float64(cfg.SourceRPS)),
		client.WithRetry(cfg.RetryAttempts, retryInitialInterval, cfg.RetryMaxElapsed),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("source client: %w", err)
	}

	dst, err := client.NewDestinationClient(cfg.DestinationBaseURL, cfg.DestinationToken,
		client.WithHTTPClient(httpClient),
		client.WithLogger(logger.With("system", "destination")),
		client.WithRateLimit(float64(cfg.DestinationRPS)),
		client.WithRetry(cfg.RetryAttempts, retryInitialInterval, cfg.RetryMaxElapsed),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("destination client: %w", err)
	}
	return src, dst, nil
}

func outputRun(formatter *OutputFormatter, result RunResult) error {
	if formatter.JSON() {
		response := CLIResponse{Status: "ok", Data: result}
		if len(result.Errors) > 0 {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodeRunFailed, Message: result.Errors[0]}
		}
		return formatter.Encode(response)
	}

	for i, report := range result.Reports {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		if err := report.WriteText(formatter.Writer); err != nil {
			return err
		}
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", msg)
	}
	return nil
}
