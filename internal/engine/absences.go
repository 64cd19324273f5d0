package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/reconcile"
	"github.com/roach88/hrsync/internal/store"
	"github.com/roach88/hrsync/internal/transform"
)

// ReasonCreatesDeferred marks absences that only a RunAbsences run creates.
const ReasonCreatesDeferred = "absence creates run with type 5"

// windowStart returns the first day of the absence lookback window.
func (e *Engine) windowStart(today ir.Date) ir.Date {
	days := int(e.cfg.AbsenceLookback / (24 * time.Hour))
	if days <= 0 {
		days = ir.AbsenceWindowDays
	}
	return today.AddDays(-days)
}

// planAbsences reconciles the absences of every matched employee.
//
// Each employee needs two reads, so employees are planned on the worker
// pool. Results are collected per employee and concatenated in library
// order so the plan does not depend on scheduling.
func (e *Engine) planAbsences(ctx context.Context, sc *SyncContext, creates bool) (*Plan, error) {
	entries := sc.Library.Entries()
	results := make([][]Operation, len(entries))
	from := e.windowStart(sc.Today)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, entry := range entries {
		if entry.DestinationInternalID == nil {
			continue
		}
		g.Go(func() error {
			ops, err := e.planEmployeeAbsences(gctx, sc, entry, from, creates)
			if err != nil {
				return err
			}
			results[i] = ops
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, ops := range results {
		plan.Operations = append(plan.Operations, ops...)
	}
	return plan, nil
}

func (e *Engine) planEmployeeAbsences(ctx context.Context, sc *SyncContext, entry ir.IdentityEntry, from ir.Date, creates bool) ([]Operation, error) {
	employee := *entry.DestinationInternalID

	res := e.src.TimeOff(ctx, entry.SourceWorkerID)
	if res.IsErr() {
		op, err := readFailed(sc, ir.KindAbsence, employee, "time-off read", res.Err())
		if err != nil {
			return nil, err
		}
		return []Operation{op}, nil
	}
	resp, ok := res.Value()
	if !ok {
		return nil, nil
	}

	records, skipped := transform.Absences(resp, transform.AbsenceInput{
		Profile:     sc.Profile,
		Tables:      sc.CountryTables,
		EmployeeID:  employee,
		WindowStart: from,
	})
	var ops []Operation
	for _, err := range skipped {
		sc.Logger.Warn("skipping malformed time-off request", "kind", ir.KindAbsence, "employee", employee, "error", err)
		ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionSkip, EmployeeID: employee, Reason: err.Error()})
	}
	if len(records) == 0 {
		return ops, nil
	}

	var dst []ir.AbsenceRecord
	current := e.dst.Absences(ctx, employee, from)
	if current.IsErr() {
		op, err := readFailed(sc, ir.KindAbsence, employee, "destination absence read", current.Err())
		if err != nil {
			return nil, err
		}
		return append(ops, op), nil
	}
	if list, ok := current.Value(); ok {
		dst = make([]ir.AbsenceRecord, len(list))
		for i, a := range list {
			dst[i] = transform.NormalizeDestinationAbsence(a)
		}
	}

	result := reconcile.Absences(records, dst)
	if err := reconcile.CheckPartition(result, dst); err != nil {
		sc.Logger.Error("absence plan rejected", "employee", employee, "error", err)
		return append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionSkip, EmployeeID: employee, Reason: "absence plan rejected", Err: err}), nil
	}

	for _, id := range result.Delete {
		ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionDelete, EmployeeID: employee, TargetID: id})
	}
	for _, u := range result.Update {
		ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionUpdate, EmployeeID: employee, TargetID: u.AbsenceID, Payload: u.Payload})
	}
	for i, a := range result.Unchanged {
		ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionNone, EmployeeID: employee, TargetID: result.UnchangedIDs[i], Payload: a})
	}
	for _, a := range result.Create {
		if !creates {
			ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionCreate, EmployeeID: employee, Payload: a, Reason: ReasonCreatesDeferred, Deferred: true})
			continue
		}
		req, ok := resp.Request(a.Section, a.Request)
		if !ok {
			ops = append(ops, Operation{Kind: ir.KindAbsence, Action: store.ActionSkip, EmployeeID: employee, Payload: a, Reason: "source request not found"})
			continue
		}
		ops = append(ops, Operation{
			Kind:       ir.KindAbsence,
			Action:     store.ActionCreate,
			EmployeeID: employee,
			Payload:    a,
			expand: func(absenceID string) ([]ir.AbsenceDay, error) {
				return transform.ExpandDays(req, absenceID, employee, sc.Profile)
			},
		})
	}
	return ops, nil
}
