package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hrsync/internal/ir"
)

// Snapshot renders the comparable outcome of a scenario as canonical JSON:
// the calls sent, the ledger entries, the report counts and the run status.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"status":        result.Status,
		"calls":         result.Calls,
		"ledger":        result.Ledger,
		"counts":        result.Counts,
	}
	if result.RunError != "" {
		snapshot["run_error"] = result.RunError
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
