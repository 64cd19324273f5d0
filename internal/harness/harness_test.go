package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/ir"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// TestRun_Scenarios runs every scenario under testdata/scenarios and
// requires all of its assertions to hold.
func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_PersonalCallsAndLedger(t *testing.T) {
	result, err := Run(loadTestScenario(t, "personal_update_and_new_starter"))
	require.NoError(t, err)

	assert.Equal(t, []string{"PUT employees emp-1", "POST employees"}, result.Calls)
	assert.Equal(t, "succeeded", result.Status)
	assert.Empty(t, result.RunError)
	require.Len(t, result.Ledger, 2)
	assert.Equal(t, LedgerEntry{
		Kind:       "personal",
		Action:     "update",
		EmployeeID: "emp-1",
		TargetID:   "emp-1",
		Outcome:    "submitted",
	}, result.Ledger[0])
}

func TestRun_FailingAssertionIsReported(t *testing.T) {
	scenario := loadTestScenario(t, "personal_update_and_new_starter")
	scenario.Assertions = []Assertion{
		{Type: AssertCallContains, Call: "DELETE absences abs-1"},
		{Type: AssertStatus, Status: "failed"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "DELETE absences abs-1")
	assert.Contains(t, result.Errors[1], "succeeded")
}

func TestRun_UnknownCountryTables(t *testing.T) {
	scenario := loadTestScenario(t, "personal_update_and_new_starter")
	scenario.Country = "can"
	scenario.Assertions = []Assertion{{Type: AssertRunError, Error: "no lookup tables"}}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Status)
	assert.Empty(t, result.Calls)
}

func TestRun_BadTables(t *testing.T) {
	scenario := loadTestScenario(t, "personal_update_and_new_starter")
	scenario.Tables = t.TempDir()

	_, err := Run(scenario)
	require.Error(t, err)
}

func TestWorkerFixture_Build(t *testing.T) {
	w := WorkerFixture{
		AOID:       "aoid-9",
		Position:   "POS9",
		DisplayID:  "EMP9",
		Name:       []string{"Grace", "Hopper"},
		Hourly:     "31.5",
		ReportsTo:  "aoid-1",
		Terminated: &TerminationFixture{Date: "2026-09-16", Reason: "RES"},
	}.Build()

	assert.Equal(t, "aoid-9", w.AssociateOID)
	assert.Equal(t, "Grace", *w.Person.LegalName.GivenName)
	assert.Equal(t, "Terminated", w.WorkerStatus.StatusCode.Code())
	a := w.WorkAssignments[0]
	assert.Equal(t, "POS9", a.PositionID)
	assert.Equal(t, "2026-09-16", *a.TerminationDate)
	assert.Equal(t, "RES", a.AssignmentTermReasonCode.Code())
	assert.Equal(t, "aoid-1", *a.ManagerID())
	assert.Nil(t, a.BaseRemuneration.AnnualRateAmount)
	assert.Equal(t, "31.5", a.BaseRemuneration.HourlyRateAmount.AmountValue.String())
}

func TestFixtureDestination_FailAndIDs(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	dst := newFixtureDestination(log, DestinationFixture{
		Employees: []EmployeeFixture{{ID: "emp-1", DisplayID: "EMP1", Position: "POS1"}},
		Fail:      map[string]int{"POST jobs": 503, "GET absences emp-1": 500},
	})

	id, err := dst.CreateEmployee(ctx, EmployeeFixture{}.Build())
	require.NoError(t, err)
	assert.Equal(t, "employees-new-1", id)

	_, err = dst.CreateJob(ctx, JobFixture{ID: "j", Employee: "e", Start: "2026-01-01"}.Build())
	require.Error(t, err)

	assert.True(t, dst.Absences(ctx, "emp-1", ir.Date{}).IsErr())
	assert.True(t, dst.EmployeeByDisplayID(ctx, "EMP1").IsSome())
	assert.True(t, dst.EmployeeByDisplayID(ctx, "EMP2").IsEmpty())

	assert.Equal(t, []string{"POST employees", "POST jobs"}, log.snapshot())
}
