package engine

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// Report summarizes one run per record kind. It is derived from the
// ledger, never from in-memory state, so a report can be rebuilt for any
// past run.
type Report struct {
	RunID      string                    `json:"run_id"`
	Country    ir.Country                `json:"country"`
	RunType    int                       `json:"run_type"`
	DryRun     bool                      `json:"dry_run"`
	Status     store.RunStatus           `json:"status"`
	Error      string                    `json:"error,omitempty"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
	Counts     map[ir.RecordKind]*Counts `json:"counts"`
}

// Counts is the per-kind tally. In a dry run the mutation counts are what
// would have been sent.
type Counts struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Deleted     int `json:"deleted"`
	Reactivated int `json:"reactivated"`
	Pushed      int `json:"pushed"`
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

var reportKinds = []ir.RecordKind{
	ir.KindIdentity,
	ir.KindPersonal,
	ir.KindJob,
	ir.KindAbsence,
	ir.KindAbsenceDay,
}

// BuildReport reads run runID back from the ledger.
func BuildReport(ctx context.Context, s *store.Store, runID string) (*Report, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ReadCounts(ctx, runID)
	if err != nil {
		return nil, err
	}

	r := &Report{
		RunID:      run.ID,
		Country:    run.Country,
		RunType:    run.RunType,
		DryRun:     run.DryRun,
		Status:     run.Status,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Counts:     make(map[ir.RecordKind]*Counts),
	}
	for _, row := range rows {
		c := r.Counts[row.Kind]
		if c == nil {
			c = &Counts{}
			r.Counts[row.Kind] = c
		}
		c.add(row)
	}
	return r, nil
}

func (c *Counts) add(row store.CountRow) {
	switch row.Outcome {
	case store.OutcomeFailed:
		c.Failed += row.N
		return
	case store.OutcomeSkipped:
		c.Skipped += row.N
		return
	case store.OutcomeUnchanged:
		c.Unchanged += row.N
		return
	}

	switch row.Action {
	case store.ActionCreate:
		c.Created += row.N
	case store.ActionUpdate:
		c.Updated += row.N
	case store.ActionDelete:
		c.Deleted += row.N
	case store.ActionReactivate:
		c.Reactivated += row.N
	case store.ActionPush:
		c.Pushed += row.N
	case store.ActionSkip:
		c.Skipped += row.N
	case store.ActionNone:
		c.Unchanged += row.N
	}
}

// Total returns the number of ledger rows counted.
func (c Counts) Total() int {
	return c.Created + c.Updated + c.Deleted + c.Reactivated + c.Pushed + c.Unchanged + c.Skipped + c.Failed
}

// WriteText renders the report as an aligned table, one row per kind that
// appears in the run.
func (r *Report) WriteText(w io.Writer) error {
	runType := fmt.Sprintf("%d", r.RunType)
	if rt, err := ParseRunType(r.RunType); err == nil {
		runType = fmt.Sprintf("%d (%s)", r.RunType, rt)
	}
	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "run %s  country=%s  type=%s  %s  status=%s\n", r.RunID, r.Country, runType, mode, r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s\n", r.Error)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCREATED\tUPDATED\tDELETED\tREACTIVATED\tPUSHED\tUNCHANGED\tSKIPPED\tFAILED")
	for _, kind := range reportKinds {
		c, ok := r.Counts[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			kind, c.Created, c.Updated, c.Deleted, c.Reactivated, c.Pushed, c.Unchanged, c.Skipped, c.Failed)
	}
	return tw.Flush()
}
