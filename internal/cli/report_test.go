package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/harness"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// rejectedUpdate fails the update of emp-1; the new starter still goes in.
func rejectedUpdate() *harness.Systems {
	return harness.NewSystems(
		harness.SourceFixture{Workers: []harness.WorkerFixture{
			{AOID: "aoid-1", Position: "POS1", DisplayID: "EMP1"},
			{AOID: "aoid-2", Position: "POS2"},
		}},
		harness.DestinationFixture{
			Employees: []harness.EmployeeFixture{
				{ID: "emp-1", DisplayID: "EMP1", Position: "POS1", ServiceStart: "2018-03-01"},
			},
			Fail: map[string]int{"PUT employees emp-1": 500},
		},
	)
}

func executeReport(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReportCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReport_MissingDatabaseFlag(t *testing.T) {
	_, err := executeReport(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReport_NonExistentDatabase(t *testing.T) {
	output, err := executeReport(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeNotFound)
	assert.NoFileExists(t, filepath.Join(t.TempDir(), "missing.db"))
}

func TestReport_ListRuns(t *testing.T) {
	dbPath := seedLedger(t, personalFixtures())

	output, err := executeReport(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "RUN")
	assert.Contains(t, output, "cli-0001")
	assert.Contains(t, output, "succeeded")
	assert.Contains(t, output, "2026-10-16")
}

func TestReport_ListRunsJSON(t *testing.T) {
	dbPath := seedLedger(t, personalFixtures())

	output, err := executeReport(t, "json", "--db", dbPath, "--limit", "5")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "cli-0001", resp.Data[0].RunID)
	assert.Equal(t, "usa", resp.Data[0].Country)
	assert.Equal(t, 3, resp.Data[0].RunType)
	assert.NotNil(t, resp.Data[0].FinishedAt)
}

func TestReport_EmptyLedger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	output, err := executeReport(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No runs recorded.")
}

func TestReport_RunDetailWithProblems(t *testing.T) {
	dbPath := seedLedger(t, rejectedUpdate())

	output, err := executeReport(t, "text", "--db", dbPath, "--run", "cli-0001")
	require.NoError(t, err)
	assert.Contains(t, output, "run cli-0001")
	assert.Contains(t, output, "=== Failed and skipped ===")
	assert.Contains(t, output, "emp-1 [500]")
}

func TestReport_RunDetailJSON(t *testing.T) {
	dbPath := seedLedger(t, rejectedUpdate())

	output, err := executeReport(t, "json", "--db", dbPath, "--run", "cli-0001")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Report struct {
				RunID  string                           `json:"run_id"`
				Counts map[ir.RecordKind]map[string]int `json:"counts"`
			} `json:"report"`
			Problems []Problem `json:"problems"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "cli-0001", resp.Data.Report.RunID)
	assert.Equal(t, 1, resp.Data.Report.Counts[ir.KindPersonal]["failed"])
	assert.Equal(t, 1, resp.Data.Report.Counts[ir.KindPersonal]["created"])

	require.Len(t, resp.Data.Problems, 1)
	assert.Equal(t, Problem{
		Kind:       "personal",
		Action:     "update",
		EmployeeID: "emp-1",
		TargetID:   "emp-1",
		Outcome:    "failed",
		HTTPStatus: 500,
		Reason:     resp.Data.Problems[0].Reason,
	}, resp.Data.Problems[0])
	assert.NotEmpty(t, resp.Data.Problems[0].Reason)
}

func TestReport_UnknownRun(t *testing.T) {
	dbPath := seedLedger(t, personalFixtures())

	output, err := executeReport(t, "text", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "run not found: nope")
}

func TestProblems_KeepsFailedAndSkipped(t *testing.T) {
	ops := []store.Operation{
		{Kind: ir.KindPersonal, Action: store.ActionUpdate, Outcome: store.OutcomeSubmitted},
		{Kind: ir.KindPersonal, Action: store.ActionCreate, Outcome: store.OutcomeSkipped, Reason: "operation budget exceeded"},
		{Kind: ir.KindAbsence, Action: store.ActionDelete, Outcome: store.OutcomeFailed, HTTPStatus: 404},
		{Kind: ir.KindJob, Action: store.ActionNone, Outcome: store.OutcomeUnchanged},
	}

	got := problems(ops)
	require.Len(t, got, 2)
	assert.Equal(t, "skipped", got[0].Outcome)
	assert.Equal(t, "operation budget exceeded", got[0].Reason)
	assert.Equal(t, 404, got[1].HTTPStatus)
}
