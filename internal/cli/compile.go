package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hrsync/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	Hash   string           `json:"hash"`
	Stats  CompilationStats `json:"stats"`
	Tables *ir.Tables       `json:"tables"`
}

// CompilationStats holds summary statistics per country.
type CompilationStats struct {
	Countries          map[ir.Country]CountryStats `json:"countries"`
	Exclusions         int                         `json:"exclusions"`
	TerminationReasons int                         `json:"termination_reasons"`
	ManagerOverrides   int                         `json:"manager_overrides"`
}

// CountryStats counts the rows of one country block.
type CountryStats struct {
	HierarchyRows  int `json:"hierarchy_rows"`
	AbsenceReasons int `json:"absence_reasons"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <tables-dir>",
		Short: "Compile lookup tables to canonical JSON",
		Long: `Compile the CUE lookup tables to canonical JSON.

The output is the exact table set a run would use, with a fingerprint
that changes whenever any row changes. Invalid tables fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, tablesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadTables(tablesDir, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Compiled %d CUE file(s) from %s", loadResult.FileCount, tablesDir)

	hash, err := ir.TablesHash(loadResult.Tables)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "hashing tables", err)
	}
	result := &CompilationResult{
		Hash:   hash,
		Stats:  calculateStats(loadResult.Tables),
		Tables: loadResult.Tables,
	}

	if opts.Output != "" {
		if err := writeTablesToFile(loadResult.Tables, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// calculateStats computes summary statistics from compiled tables.
func calculateStats(t *ir.Tables) CompilationStats {
	stats := CompilationStats{
		Countries:          make(map[ir.Country]CountryStats),
		Exclusions:         len(t.Exclusions),
		TerminationReasons: len(t.TerminationReasons),
		ManagerOverrides:   len(t.ManagerOverrides.Employees),
	}
	for c, ct := range t.Countries {
		stats.Countries[c] = CountryStats{
			HierarchyRows:  len(ct.Hierarchy),
			AbsenceReasons: len(ct.AbsenceReasons),
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled tables for %d country(ies)\n\n", len(result.Stats.Countries))
	for _, c := range result.Tables.CountryCodes() {
		s := result.Stats.Countries[c]
		fmt.Fprintf(formatter.Writer, "  %s: %d hierarchy row(s), %d absence reason(s)\n", c, s.HierarchyRows, s.AbsenceReasons)
	}
	fmt.Fprintf(formatter.Writer, "  exclusions: %d, termination reasons: %d, manager overrides: %d\n\n",
		result.Stats.Exclusions, result.Stats.TerminationReasons, result.Stats.ManagerOverrides)
	fmt.Fprintf(formatter.Writer, "Hash: %s\n", result.Hash)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical tables to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	failure := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	issues := make([]ValidationIssue, len(errs))
	for i, err := range errs {
		issues[i] = toIssue(err)
	}

	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
			Data:   issues,
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return failure
}

// writeTablesToFile writes the tables as canonical JSON, so the file is
// byte-identical for identical tables.
func writeTablesToFile(t *ir.Tables, filename string) error {
	data, err := ir.MarshalCanonical(t)
	if err != nil {
		return fmt.Errorf("marshaling tables: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
