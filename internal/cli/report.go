package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	RunID    string
	Limit    int
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Country    string     `json:"country"`
	RunType    int        `json:"run_type"`
	DryRun     bool       `json:"dry_run"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Problem is a failed or skipped ledger row of a reported run.
type Problem struct {
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	EmployeeID string `json:"employee_id"`
	TargetID   string `json:"target_id,omitempty"`
	Outcome    string `json:"outcome"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// RunDetail is the JSON payload of report --run.
type RunDetail struct {
	Report   *engine.Report `json:"report"`
	Problems []Problem      `json:"problems"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show past runs from the ledger",
		Long: `Show past runs from the ledger.

Without --run, lists the most recent runs. With --run, rebuilds that run's
report from its ledger rows and lists every failed or skipped operation
with its reason.

Examples:
  hrsync report --db ./hrsync.db
  hrsync report --db ./hrsync.db --limit 5
  hrsync report --db ./hrsync.db --run 0192f6c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to report on")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	st, err := openLedger(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ledgerErrorCode(err), "failed to open ledger", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeDBFailed, "failed to list runs", err)
		}
		return outputRunList(formatter, summarize(runs))
	}

	report, err := engine.BuildReport(ctx, st, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDBFailed, "failed to build report", err)
	}
	ops, err := st.ReadOperations(ctx, opts.RunID, "")
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDBFailed, "failed to read operations", err)
	}

	detail := RunDetail{Report: report, Problems: problems(ops)}
	if formatter.JSON() {
		return formatter.Success(detail)
	}
	return outputRunDetail(formatter.Writer, detail)
}

// errLedgerMissing keeps read-only commands from creating an empty ledger.
var errLedgerMissing = errors.New("ledger not found")

// openLedger opens an existing ledger for reading.
func openLedger(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errLedgerMissing, path)
		}
		return nil, err
	}
	return store.Open(path)
}

func ledgerErrorCode(err error) string {
	if errors.Is(err, errLedgerMissing) {
		return ErrCodeNotFound
	}
	return ErrCodeDBFailed
}

func summarize(runs []store.Run) []RunSummary {
	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunSummary{
			RunID:      r.ID,
			Country:    string(r.Country),
			RunType:    r.RunType,
			DryRun:     r.DryRun,
			Status:     string(r.Status),
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return out
}

// problems keeps the failed and skipped rows, in ledger order.
func problems(ops []store.Operation) []Problem {
	out := []Problem{}
	for _, op := range ops {
		if op.Outcome != store.OutcomeFailed && op.Outcome != store.OutcomeSkipped {
			continue
		}
		out = append(out, Problem{
			Kind:       string(op.Kind),
			Action:     string(op.Action),
			EmployeeID: op.EmployeeID,
			TargetID:   op.TargetID,
			Outcome:    string(op.Outcome),
			HTTPStatus: op.HTTPStatus,
			Reason:     op.Reason,
		})
	}
	return out
}

func outputRunList(formatter *OutputFormatter, runs []RunSummary) error {
	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCOUNTRY\tTYPE\tMODE\tSTATUS\tSTARTED\tDURATION")
	for _, r := range runs {
		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.RunID, r.Country, r.RunType, mode, r.Status, r.StartedAt.Format(time.RFC3339), duration)
	}
	return tw.Flush()
}

func outputRunDetail(w io.Writer, detail RunDetail) error {
	if err := detail.Report.WriteText(w); err != nil {
		return err
	}
	if len(detail.Problems) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Failed and skipped ===")
	for _, p := range detail.Problems {
		status := ""
		if p.HTTPStatus != 0 {
			status = fmt.Sprintf(" [%d]", p.HTTPStatus)
		}
		fmt.Fprintf(w, "  %-11s %-10s %-8s %s%s: %s\n", p.Kind, p.Action, p.Outcome, p.EmployeeID, status, p.Reason)
	}
	return nil
}
