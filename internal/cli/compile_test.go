package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/compiler"
	"github.com/roach88/hrsync/internal/ir"
)

func executeCompile(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileValidTables(t *testing.T) {
	output, err := executeCompile(t, "text", validTables)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled tables for 2 country(ies)")
	assert.Contains(t, output, "usa: 2 hierarchy row(s), 2 absence reason(s)")
	assert.Contains(t, output, "can: 2 hierarchy row(s), 1 absence reason(s)")
	assert.Contains(t, output, "exclusions: 1, termination reasons: 2, manager overrides: 1")
	assert.Regexp(t, `Hash: [0-9a-f]{64}`, output)
	assert.NotContains(t, output, "Wrote canonical tables")
}

func TestCompileValidTablesJSON(t *testing.T) {
	output, err := executeCompile(t, "json", validTables)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Hash  string           `json:"hash"`
			Stats CompilationStats `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Equal(t, CountryStats{HierarchyRows: 2, AbsenceReasons: 1}, resp.Data.Stats.Countries[ir.CountryCAN])
	assert.Equal(t, 2, resp.Data.Stats.TerminationReasons)
}

func TestCompileHashIsStable(t *testing.T) {
	first, err := executeCompile(t, "json", validTables)
	require.NoError(t, err)
	second, err := executeCompile(t, "json", validTables)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileWritesCanonicalFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "tables.json")

	output, err := executeCompile(t, "text", validTables, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote canonical tables to "+outFile)

	written, err := os.ReadFile(outFile)
	require.NoError(t, err)

	loadResult, errs := LoadTables(validTables, LoadModeFailFast)
	require.Empty(t, errs)
	want, err := ir.MarshalCanonical(loadResult.Tables)
	require.NoError(t, err)
	assert.Equal(t, want, written)

	hash, err := ir.TablesHash(loadResult.Tables)
	require.NoError(t, err)
	assert.Contains(t, output, "Hash: "+hash)
}

func TestCompileInvalidTables(t *testing.T) {
	output, err := executeCompile(t, "text", "testdata/tables/invalid")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 3 error(s)")
	assert.Contains(t, output, "✗ Compilation failed")
	assert.Contains(t, output, compiler.ErrEarningTypeRequired)
}

func TestCompileInvalidTablesJSON(t *testing.T) {
	output, err := executeCompile(t, "json", "testdata/tables/invalid")
	require.Error(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []ValidationIssue `json:"data"`
		Error  *CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Len(t, resp.Data, 3)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrHierarchyRootEmpty, resp.Error.Code)
}

func TestCompileMissingDirectory(t *testing.T) {
	output, err := executeCompile(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeNotFound)
}

func TestCompileRequiresDirectory(t *testing.T) {
	_, err := executeCompile(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCalculateStats(t *testing.T) {
	tables := &ir.Tables{
		Countries: map[ir.Country]ir.CountryTables{
			ir.CountryUSA: {
				Hierarchy:      []ir.HierarchyRow{{Code: "1", Node: "a"}},
				AbsenceReasons: []ir.AbsenceReasonRow{{Policy: "PTO"}, {Policy: "Sick"}},
			},
		},
		ManagerOverrides: ir.ManagerOverrides{Placeholder: "p", Employees: []string{"E1", "E2"}},
		Exclusions:       []string{"X1"},
	}

	stats := calculateStats(tables)
	assert.Equal(t, CompilationStats{
		Countries: map[ir.Country]CountryStats{
			ir.CountryUSA: {HierarchyRows: 1, AbsenceReasons: 2},
		},
		Exclusions:       1,
		ManagerOverrides: 2,
	}, stats)
}
