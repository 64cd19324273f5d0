package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hrsync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Employee string
	Kind     string // optional - filter to one record kind
}

// TraceEvent is one ledger row in an employee's timeline.
type TraceEvent struct {
	Seq         int64           `json:"seq"`
	RunID       string          `json:"run_id"`
	Kind        string          `json:"kind"`
	Action      string          `json:"action"`
	TargetID    string          `json:"target_id,omitempty"`
	Outcome     string          `json:"outcome"`
	HTTPStatus  int             `json:"http_status,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	PayloadHash string          `json:"payload_hash,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Employee string       `json:"employee"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Operations int `json:"operations"`
	Runs       int `json:"runs"`
	Submitted  int `json:"submitted"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show an employee's history across runs",
		Long: `Show every ledger row that touched one employee, oldest first.

The employee is the destination id, or the display id or position id for
records that had no destination id when they were planned.

Examples:
  hrsync trace --db ./hrsync.db --employee 6f0c...
  hrsync trace --db ./hrsync.db --employee EMP042 --kind absence
  hrsync trace --db ./hrsync.db --employee EMP042 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Employee, "employee", "", "employee to trace (required)")
	_ = cmd.MarkFlagRequired("employee")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one record kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	st, err := openLedger(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ledgerErrorCode(err), "failed to open ledger", err)
	}
	defer st.Close()

	ops, err := st.ReadEmployeeHistory(ctx, opts.Employee)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDBFailed, "failed to read history", err)
	}

	result := TraceResult{
		Employee: opts.Employee,
		Timeline: buildTimeline(ops, opts.Kind, opts.Verbose || formatter.JSON()),
	}
	result.Stats = traceStats(result.Timeline)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTimeline converts ledger rows to timeline events. Payloads are
// carried only when they will be shown.
func buildTimeline(ops []store.Operation, kind string, withPayload bool) []TraceEvent {
	timeline := []TraceEvent{}
	for _, op := range ops {
		if kind != "" && string(op.Kind) != kind {
			continue
		}
		event := TraceEvent{
			Seq:         op.Seq,
			RunID:       op.RunID,
			Kind:        string(op.Kind),
			Action:      string(op.Action),
			TargetID:    op.TargetID,
			Outcome:     string(op.Outcome),
			HTTPStatus:  op.HTTPStatus,
			Reason:      op.Reason,
			PayloadHash: op.PayloadHash,
		}
		if withPayload && op.Payload != "" {
			event.Payload = json.RawMessage(op.Payload)
		}
		timeline = append(timeline, event)
	}
	return timeline
}

func traceStats(timeline []TraceEvent) TraceStats {
	stats := TraceStats{Operations: len(timeline)}
	runs := make(map[string]bool)
	for _, e := range timeline {
		runs[e.RunID] = true
		switch store.Outcome(e.Outcome) {
		case store.OutcomeSubmitted:
			stats.Submitted++
		case store.OutcomeFailed:
			stats.Failed++
		case store.OutcomeSkipped:
			stats.Skipped++
		}
	}
	stats.Runs = len(runs)
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Employee: %s\n", result.Employee)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no operations)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Operations: %d\n", result.Stats.Operations)
	fmt.Fprintf(w, "  Runs:       %d\n", result.Stats.Runs)
	fmt.Fprintf(w, "  Submitted:  %d\n", result.Stats.Submitted)
	fmt.Fprintf(w, "  Failed:     %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Skipped:    %d\n", result.Stats.Skipped)
	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s %s -> %s", event.Seq, truncateID(event.RunID), event.Kind, event.Action, event.Outcome)
	if event.TargetID != "" {
		fmt.Fprintf(w, " (%s)", event.TargetID)
	}
	if event.HTTPStatus != 0 {
		fmt.Fprintf(w, " [%d]", event.HTTPStatus)
	}
	fmt.Fprintln(w)
	if event.Reason != "" {
		fmt.Fprintf(w, "      reason: %s\n", event.Reason)
	}
	if verbose && len(event.Payload) > 0 {
		fmt.Fprintf(w, "      payload: %s\n", event.Payload)
	}
}

// truncateID shortens an id for display.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "..."
}
