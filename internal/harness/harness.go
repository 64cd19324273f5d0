package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/hrsync/internal/compiler"
	"github.com/roach88/hrsync/internal/config"
	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
	"github.com/roach88/hrsync/internal/testutil"
)

// RunIDPrefix prefixes the sequential run ids of scenario runs.
const RunIDPrefix = "scenario"

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory ledger with one worker, a clock
// pinned to the scenario's today and sequential run ids, so the call order
// and the ledger are the same on every run.
//
// Execution flow:
// 1. Compile and validate the scenario's lookup tables
// 2. Build fixture systems from the scenario
// 3. Run the engine for the scenario's country and run type
// 4. Read the ledger back and evaluate assertions
//
// A run that fails is not an error here: its status and error are part of
// the result and may be asserted on. Errors are returned only when the
// scenario itself cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	tables, err := loadTables(scenario.Tables)
	if err != nil {
		return nil, err
	}

	country, err := ir.ParseCountry(scenario.Country)
	if err != nil {
		return nil, err
	}
	rt, err := engine.ParseRunType(scenario.RunType)
	if err != nil {
		return nil, err
	}
	today, err := ir.ParseDate(scenario.Today)
	if err != nil {
		return nil, fmt.Errorf("today: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	systems := NewSystems(scenario.Source, scenario.Destination)

	t := today.Time()
	eng := engine.New(config.Config{Workers: 1, MaxOperations: scenario.MaxOperations}, systems.Source, systems.Destination, tables, st,
		engine.WithClock(testutil.NewFixedClock(t.Year(), t.Month(), t.Day())),
		engine.WithRunIDs(testutil.NewSequentialRunIDs(RunIDPrefix)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithDryRun(scenario.DryRun),
	)

	result := NewResult()
	report, runErr := eng.Run(ctx, country, rt)
	if runErr != nil {
		result.RunError = runErr.Error()
	}
	result.Calls = systems.Calls()

	if report != nil {
		result.Status = string(report.Status)
		result.Counts = report.Counts

		ops, err := st.ReadOperations(ctx, report.RunID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		for _, op := range ops {
			result.Ledger = append(result.Ledger, ledgerEntry(op))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// loadTables compiles every CUE file of dir as one package and validates
// the result. Warnings are not fatal in scenarios.
func loadTables(dir string) (*ir.Tables, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	tables, err := compiler.CompileTables(value)
	if err != nil {
		return nil, fmt.Errorf("compiling tables: %w", err)
	}
	if errs := compiler.Validate(tables); len(errs) > 0 {
		return nil, fmt.Errorf("invalid tables: %w", errs[0])
	}
	return tables, nil
}
