package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hrsync/internal/compiler"
)

// ValidationIssue is one error found while loading or validating tables.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool               `json:"valid"`
	Files     int                `json:"files"`
	Countries []string           `json:"countries,omitempty"`
	Errors    []ValidationIssue  `json:"errors,omitempty"`
	Warnings  []compiler.Warning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <tables-dir>",
		Short: "Validate lookup tables",
		Long: `Validate the CUE lookup tables without running a sync.

Compiles every .cue file in the directory as one package, then checks each
country block: hierarchy root, hierarchy and absence reason rows, custom
field item id, termination reasons and manager overrides. All errors are
reported, not just the first. Shadowed rows are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, tablesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadTables(tablesDir, LoadModeCollectAll)

	// Directory not found, no files, CUE that does not load
	if loadResult == nil && len(loadErrors) > 0 {
		return formatter.fail(ExitCommandError, loadErrorCode(loadErrors[0]), loadMessage(loadErrors[0]), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, tablesDir)

	result := ValidationResult{
		Valid:    len(loadErrors) == 0,
		Files:    loadResult.FileCount,
		Warnings: loadResult.Warnings,
	}
	if loadResult.Tables != nil {
		for _, c := range loadResult.Tables.CountryCodes() {
			result.Countries = append(result.Countries, string(c))
		}
	}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, toIssue(err))
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func toIssue(err error) ValidationIssue {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		issue.File = loadErr.Pos.Filename()
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}

func loadMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return err.Error()
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	writeWarnings(formatter, result.Warnings)
	fmt.Fprintf(formatter.Writer, "✓ Tables valid (%d file(s), countries: %v)\n", result.Files, result.Countries)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	writeWarnings(formatter, result.Warnings)

	return failure
}

func writeWarnings(formatter *OutputFormatter, warnings []compiler.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "! %s: %s %v\n", w.Level, w.Message, w.Path)
	}
}
