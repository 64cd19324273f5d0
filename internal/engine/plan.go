package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/identity"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/reconcile"
	"github.com/roach88/hrsync/internal/store"
	"github.com/roach88/hrsync/internal/transform"
)

// Operation is one planned step of a run.
//
// EmployeeID groups operations for serialization: the destination internal
// id when known, otherwise the display id or position id that identifies
// the record. Payload is the exact body that will be sent, or the record
// compared for unchanged and skipped entries.
type Operation struct {
	Kind       ir.RecordKind
	Action     store.Action
	EmployeeID string
	TargetID   string
	Payload    any
	Reason     string

	// Err marks an operation that failed during planning (a failed read
	// for this employee). It is recorded as failed and never submitted.
	Err error

	// Deferred keeps the planned action but leaves it to another run
	// type. It is recorded as skipped with Reason and never submitted.
	Deferred bool

	// expand builds the days of an absence once the destination has
	// assigned its id. Set only on absence creates.
	expand func(absenceID string) ([]ir.AbsenceDay, error)
}

// Mutates reports whether submitting op changes either system.
func (op Operation) Mutates() bool {
	if op.Err != nil || op.Deferred {
		return false
	}
	switch op.Action {
	case store.ActionCreate, store.ActionUpdate, store.ActionDelete, store.ActionReactivate, store.ActionPush:
		return true
	}
	return false
}

// Plan is the ordered list of operations of one run.
type Plan struct {
	Operations []Operation
}

func (p *Plan) add(op Operation) {
	p.Operations = append(p.Operations, op)
}

func (p *Plan) skip(kind ir.RecordKind, employee, reason string, payload any) {
	p.add(Operation{Kind: kind, Action: store.ActionSkip, EmployeeID: employee, Payload: payload, Reason: reason})
}

// Count returns how many operations of kind carry action.
func (p *Plan) Count(kind ir.RecordKind, action store.Action) int {
	n := 0
	for _, op := range p.Operations {
		if op.Kind == kind && op.Action == action {
			n++
		}
	}
	return n
}

// planPush writes the destination display id back to source workers that
// do not carry it yet but whose position id is matched at the destination.
func (e *Engine) planPush(sc *SyncContext) *Plan {
	plan := &Plan{}
	itemID := sc.Profile.CustomFieldItemID(sc.CountryTables)

	for _, w := range sc.Workers.Current {
		displayID := sc.Profile.DisplayID(w)
		if displayID != "" {
			if _, ok := sc.Library.ByDisplayID(displayID); ok {
				plan.add(Operation{Kind: ir.KindIdentity, Action: store.ActionNone, EmployeeID: displayID})
				continue
			}
		}

		entry, ok := sc.Library.BySourceID(w.AssociateOID)
		if !ok {
			plan.skip(ir.KindIdentity, w.AssociateOID, "worker not in identity library", nil)
			continue
		}
		if entry.DestinationDisplayID == nil {
			plan.skip(ir.KindIdentity, entry.PositionID, reconcile.ReasonNotAtDestination, nil)
			continue
		}

		plan.add(Operation{
			Kind:       ir.KindIdentity,
			Action:     store.ActionPush,
			EmployeeID: ir.Deref(entry.DestinationInternalID),
			TargetID:   w.AssociateOID,
			Payload:    feed.NewChangeEvent(w.AssociateOID, itemID, *entry.DestinationDisplayID),
		})
	}
	return plan
}

// projectPersonal projects workers through lib. Workers without an entry or
// with malformed records are added to plan as skips.
func projectPersonal(sc *SyncContext, lib *identity.Library, workers []feed.Worker, plan *Plan) []ir.PersonalRecord {
	out := make([]ir.PersonalRecord, 0, len(workers))
	for _, w := range workers {
		entry, ok := transform.EntryFor(lib, sc.Profile, w)
		if !ok {
			plan.skip(ir.KindPersonal, w.AssociateOID, "worker not in identity library", nil)
			continue
		}
		rec, err := transform.Personal(w, entry, sc.Profile, sc.Tables)
		if err != nil {
			sc.Logger.Warn("skipping malformed worker", "kind", ir.KindPersonal, "employee", w.AssociateOID, "error", err)
			plan.skip(ir.KindPersonal, w.AssociateOID, err.Error(), nil)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func personalEmployee(r ir.PersonalRecord) string {
	if r.Id != nil {
		return *r.Id
	}
	if k := r.Key(); k != "" {
		return k
	}
	return ir.Deref(r.NationalInsuranceNumber)
}

// planPersonal reconciles personal records of current workers, then looks
// for recent leavers still current at the destination.
func (e *Engine) planPersonal(ctx context.Context, sc *SyncContext) (*Plan, error) {
	plan := &Plan{}

	dst := make([]ir.PersonalRecord, len(sc.Employees))
	for i, d := range sc.Employees {
		dst[i] = transform.NormalizeDestinationPersonal(d)
	}

	src := projectPersonal(sc, sc.Library, sc.Workers.Current, plan)
	result := reconcile.Personal(src, dst)

	for _, r := range result.Unchanged {
		plan.add(Operation{Kind: ir.KindPersonal, Action: store.ActionNone, EmployeeID: personalEmployee(r), TargetID: ir.Deref(r.Id), Payload: r})
	}
	for _, r := range result.Update {
		plan.add(Operation{Kind: ir.KindPersonal, Action: store.ActionUpdate, EmployeeID: personalEmployee(r), TargetID: *r.Id, Payload: r})
	}
	for _, r := range result.Create {
		plan.add(Operation{Kind: ir.KindPersonal, Action: store.ActionCreate, EmployeeID: personalEmployee(r), Payload: r})
	}
	for _, s := range result.Skipped {
		plan.skip(ir.KindPersonal, s.Key, s.Reason, nil)
	}

	leaverLib := identity.Build(identity.Input{
		Profile:     sc.Profile,
		Tables:      sc.CountryTables,
		Workers:     sc.Workers.Terminated,
		Destination: sc.Employees,
		Nodes:       sc.Nodes,
	}, sc.Logger)
	// leavers that fail to project are not worth a ledger row each
	var discard Plan
	leavers := projectPersonal(sc, leaverLib, sc.Workers.Terminated, &discard)

	for _, r := range reconcile.Reactivations(leavers, dst, sc.Today) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		op, err := e.reactivation(ctx, sc, r)
		if err != nil {
			return nil, err
		}
		plan.add(op)
	}
	return plan, nil
}

// reactivation refreshes a leaver's Id and continuous service date from the
// destination before it is written back with its leaving fields.
func (e *Engine) reactivation(ctx context.Context, sc *SyncContext, r reconcile.Reactivation) (Operation, error) {
	key := r.Record.Key()
	res := e.dst.EmployeeByDisplayID(ctx, key)
	switch {
	case res.IsErr():
		return readFailed(sc, ir.KindPersonal, key, "leaver lookup", res.Err())
	case res.IsEmpty():
		return Operation{Kind: ir.KindPersonal, Action: store.ActionSkip, EmployeeID: key, Reason: reconcile.ReasonNotAtDestination}, nil
	}

	current, _ := res.Value()
	rec := r.Record
	rec.Id = current.Id
	rec.ContinuousServiceDate = current.ContinuousServiceDate
	if rec.Id == nil {
		return Operation{Kind: ir.KindPersonal, Action: store.ActionSkip, EmployeeID: key, Reason: reconcile.ReasonNoInternalID}, nil
	}
	return Operation{
		Kind:       ir.KindPersonal,
		Action:     store.ActionReactivate,
		EmployeeID: *rec.Id,
		TargetID:   *rec.Id,
		Payload:    rec,
		Reason:     fmt.Sprintf("left %d days ago", r.DaysSinceLeaving),
	}, nil
}

// planJobs projects the current job line of every matched worker and
// reconciles it with the destination's open lines.
func (e *Engine) planJobs(ctx context.Context, sc *SyncContext) (*Plan, error) {
	listing, err := e.dst.Jobs(ctx)
	if err != nil {
		return nil, classify(err, sc.Country, ir.KindJob, "", "read destination jobs")
	}
	sc.Failed = append(sc.Failed, listing.Failed...)

	normalized := make([]ir.JobRecord, len(listing.Items))
	for i, j := range listing.Items {
		normalized[i] = transform.NormalizeDestinationJob(j)
	}
	dst := transform.CurrentJobs(normalized)
	current := make(map[string]ir.JobRecord, len(dst))
	for _, j := range dst {
		current[*j.EmployeeId] = j
	}

	plan := &Plan{}
	in := transform.JobInput{Profile: sc.Profile, Library: sc.Library, Tables: sc.Tables}
	src := make([]ir.JobRecord, 0, len(sc.Workers.Current))
	for _, w := range sc.Workers.Current {
		entry, ok := transform.EntryFor(sc.Library, sc.Profile, w)
		if !ok {
			plan.skip(ir.KindJob, w.AssociateOID, "worker not in identity library", nil)
			continue
		}
		if entry.DestinationInternalID == nil {
			plan.skip(ir.KindJob, entry.PositionID, reconcile.ReasonNoInternalID, nil)
			continue
		}

		var rec ir.JobRecord
		if cur, ok := current[*entry.DestinationInternalID]; ok {
			rec, err = transform.Job(w, entry, cur, in)
		} else {
			rec, err = transform.NewStarterJob(w, entry, in)
		}
		if err != nil {
			sc.Logger.Warn("skipping malformed job", "kind", ir.KindJob, "employee", *entry.DestinationInternalID, "error", err)
			plan.skip(ir.KindJob, *entry.DestinationInternalID, err.Error(), nil)
			continue
		}
		src = append(src, rec)
	}

	result := reconcile.Jobs(src, dst)
	for _, j := range result.Unchanged {
		plan.add(Operation{Kind: ir.KindJob, Action: store.ActionNone, EmployeeID: *j.EmployeeId, TargetID: ir.Deref(j.Id), Payload: j})
	}
	for _, j := range result.Update {
		if j.Id == nil {
			plan.skip(ir.KindJob, *j.EmployeeId, "job line has no id", j)
			continue
		}
		plan.add(Operation{Kind: ir.KindJob, Action: store.ActionUpdate, EmployeeID: *j.EmployeeId, TargetID: *j.Id, Payload: j})
	}
	for _, j := range result.Create {
		plan.add(Operation{Kind: ir.KindJob, Action: store.ActionCreate, EmployeeID: *j.EmployeeId, Payload: j})
	}
	for _, s := range result.Skipped {
		plan.skip(ir.KindJob, s.Key, s.Reason, nil)
	}
	return plan, nil
}

// readFailed turns a failed per-employee read into a failed operation, or
// returns the error when it must stop the run.
func readFailed(sc *SyncContext, kind ir.RecordKind, employee, what string, err error) (Operation, error) {
	if IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Operation{}, classify(err, sc.Country, kind, employee, what)
	}
	sc.Logger.Warn(what+" failed", "kind", kind, "employee", employee, "error", err)
	return Operation{Kind: kind, Action: store.ActionSkip, EmployeeID: employee, Reason: what + " failed", Err: err}, nil
}
