package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// Skip reasons written by Submit.
const (
	ReasonBudget    = "operation budget exceeded"
	ReasonCancelled = "run cancelled"
	ReasonStopped   = "run stopped after fatal error"
)

// outcome is what happened to one planned operation.
type outcome struct {
	outcome  store.Outcome
	targetID string
	status   int
	reason   string
	days     []dayOutcome
}

type dayOutcome struct {
	day     ir.AbsenceDay
	outcome store.Outcome
	status  int
	reason  string
}

// Submit applies plan and writes every operation to the ledger in plan
// order.
//
// The mutation count of each kind is checked against the budget first; if
// any kind is over, nothing is sent and every mutation is recorded as
// skipped. In a dry run mutations are recorded as planned. Otherwise
// operations are grouped by employee; each group runs on the worker pool
// under that employee's lock, in plan order.
func (e *Engine) Submit(ctx context.Context, sc *SyncContext, plan *Plan) error {
	ops := plan.Operations
	results := make([]outcome, len(ops))

	var runErr error
	if err := e.checkBudget(sc, plan); err != nil {
		runErr = err
		for i, op := range ops {
			results[i] = settled(op)
			if op.Mutates() {
				results[i] = outcome{outcome: store.OutcomeSkipped, reason: ReasonBudget}
			}
		}
	} else if sc.DryRun {
		for i, op := range ops {
			results[i] = plannedOutcome(op)
		}
	} else {
		runErr = e.submit(ctx, sc, ops, results)
	}

	if err := e.record(context.WithoutCancel(ctx), sc, ops, results); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (e *Engine) checkBudget(sc *SyncContext, plan *Plan) error {
	budget := NewOperationBudget(e.maxOps)
	var over []ir.RecordKind
	for _, op := range plan.Operations {
		if !op.Mutates() {
			continue
		}
		if err := budget.Check(op.Kind); err != nil && budget.Current(op.Kind) == e.maxOps+1 {
			over = append(over, op.Kind)
		}
	}
	if len(over) == 0 {
		return nil
	}
	errs := make([]error, 0, len(over))
	for _, kind := range over {
		sc.Logger.Error("operation budget exceeded", "kind", kind, "planned", budget.Current(kind), "limit", e.maxOps)
		errs = append(errs, NewBudgetError(sc.Country, kind, budget.Current(kind), e.maxOps))
	}
	return errors.Join(errs...)
}

// settled is the outcome of an operation that needs no submission.
func settled(op Operation) outcome {
	switch {
	case op.Err != nil:
		return outcome{outcome: store.OutcomeFailed, targetID: op.TargetID, status: statusOf(op.Err), reason: fmt.Sprintf("%s: %v", op.Reason, op.Err)}
	case op.Action == store.ActionNone:
		return outcome{outcome: store.OutcomeUnchanged, targetID: op.TargetID}
	default:
		return outcome{outcome: store.OutcomeSkipped, targetID: op.TargetID, reason: op.Reason}
	}
}

// plannedOutcome is what a dry run records for op.
func plannedOutcome(op Operation) outcome {
	if !op.Mutates() {
		return settled(op)
	}
	out := outcome{outcome: store.OutcomePlanned, targetID: op.TargetID, reason: op.Reason}
	if op.expand != nil {
		days, err := op.expand("")
		if err != nil {
			out.days = []dayOutcome{{outcome: store.OutcomeFailed, reason: err.Error()}}
			return out
		}
		for _, d := range days {
			out.days = append(out.days, dayOutcome{day: d, outcome: store.OutcomePlanned})
		}
	}
	return out
}

func (e *Engine) submit(ctx context.Context, sc *SyncContext, ops []Operation, results []outcome) error {
	var (
		order  []string
		groups = make(map[string][]int)
	)
	for i, op := range ops {
		if !op.Mutates() {
			results[i] = settled(op)
			continue
		}
		if _, ok := groups[op.EmployeeID]; !ok {
			order = append(order, op.EmployeeID)
		}
		groups[op.EmployeeID] = append(groups[op.EmployeeID], i)
	}

	// in-flight writes finish even when the run is cancelled
	applyCtx := context.WithoutCancel(ctx)
	var stopped atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, employee := range order {
		idx := groups[employee]
		g.Go(func() error {
			unlock := e.locks.Lock(employee)
			defer unlock()

			for _, i := range idx {
				if gctx.Err() != nil || stopped.Load() {
					reason := ReasonStopped
					if ctx.Err() != nil {
						reason = ReasonCancelled
					}
					results[i] = outcome{outcome: store.OutcomeSkipped, targetID: ops[i].TargetID, reason: reason}
					continue
				}
				out, err := e.apply(applyCtx, sc, ops[i])
				results[i] = out
				if err != nil && IsFatal(err) {
					stopped.Store(true)
					return classify(err, sc.Country, ops[i].Kind, employee, fmt.Sprintf("%s %s", ops[i].Action, ops[i].Kind))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// apply sends one mutation. The returned error is the write failure, if
// any; the outcome records it either way.
func (e *Engine) apply(ctx context.Context, sc *SyncContext, op Operation) (outcome, error) {
	logger := sc.Logger.With("kind", op.Kind, "action", op.Action, "employee", op.EmployeeID)
	out := outcome{outcome: store.OutcomeSubmitted, targetID: op.TargetID, reason: op.Reason}

	var err error
	switch op.Kind {
	case ir.KindIdentity:
		err = e.applyPush(ctx, op)
	case ir.KindPersonal:
		rec := op.Payload.(ir.PersonalRecord)
		if op.Action == store.ActionCreate {
			out.targetID, err = e.dst.CreateEmployee(ctx, rec)
		} else {
			err = e.dst.UpdateEmployee(ctx, op.TargetID, rec)
		}
	case ir.KindJob:
		rec := op.Payload.(ir.JobRecord)
		if op.Action == store.ActionCreate {
			out.targetID, err = e.dst.CreateJob(ctx, rec)
		} else {
			err = e.dst.UpdateJob(ctx, op.TargetID, rec)
		}
	case ir.KindAbsence:
		switch op.Action {
		case store.ActionDelete:
			err = e.dst.DeleteAbsence(ctx, op.TargetID)
		case store.ActionUpdate:
			err = e.dst.UpdateAbsence(ctx, op.TargetID, op.Payload.(ir.AbsenceUpdate))
		case store.ActionCreate:
			out.targetID, err = e.dst.CreateAbsence(ctx, op.Payload.(ir.AbsenceRecord))
			if err == nil {
				out.days = e.applyDays(ctx, sc, op, out.targetID)
			}
		}
	default:
		err = fmt.Errorf("no writer for kind %s", op.Kind)
	}

	if err != nil {
		logger.Warn("write failed", "error", err)
		out.outcome = store.OutcomeFailed
		out.status = statusOf(err)
		out.reason = err.Error()
		return out, err
	}
	logger.Debug("write submitted", "target", out.targetID)
	return out, nil
}

func (e *Engine) applyPush(ctx context.Context, op Operation) error {
	event, ok := op.Payload.(feed.ChangeEvent)
	if !ok || len(event.Events) == 0 {
		return fmt.Errorf("push for %s carries no change event", op.TargetID)
	}
	data := event.Events[0].Data
	itemID := ir.Deref(data.EventContext.Worker.Person.CustomFieldGroup.StringField.ItemID)
	displayID := ir.Deref(data.Transform.Worker.Person.CustomFieldGroup.StringField.StringValue)
	return e.src.PushDisplayID(ctx, op.TargetID, itemID, displayID)
}

// applyDays creates the days of a freshly created absence. A day that
// fails is recorded; the remaining days are still sent.
func (e *Engine) applyDays(ctx context.Context, sc *SyncContext, op Operation, absenceID string) []dayOutcome {
	days, err := op.expand(absenceID)
	if err != nil {
		sc.Logger.Warn("absence days not expanded", "employee", op.EmployeeID, "absence", absenceID, "error", err)
		return []dayOutcome{{day: ir.AbsenceDay{AbsenceId: absenceID, EmployeeId: op.EmployeeID}, outcome: store.OutcomeFailed, reason: err.Error()}}
	}

	out := make([]dayOutcome, 0, len(days))
	for _, d := range days {
		if err := e.dst.CreateAbsenceDay(ctx, d); err != nil {
			sc.Logger.Warn("absence day failed", "employee", op.EmployeeID, "absence", absenceID, "date", d.Date, "error", err)
			out = append(out, dayOutcome{day: d, outcome: store.OutcomeFailed, status: statusOf(err), reason: err.Error()})
			continue
		}
		out = append(out, dayOutcome{day: d, outcome: store.OutcomeSubmitted})
	}
	return out
}

func statusOf(err error) int {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// record writes the ledger rows of one run in plan order. The days of an
// absence follow the absence.
func (e *Engine) record(ctx context.Context, sc *SyncContext, ops []Operation, results []outcome) error {
	for i, op := range ops {
		res := results[i]
		payload, hash, err := store.EncodePayload(op.Kind, op.Payload)
		if err != nil {
			return err
		}
		err = e.store.WriteOperation(ctx, store.Operation{
			RunID:       sc.RunID,
			Kind:        op.Kind,
			Action:      op.Action,
			EmployeeID:  op.EmployeeID,
			TargetID:    res.targetID,
			Payload:     payload,
			PayloadHash: hash,
			Outcome:     res.outcome,
			HTTPStatus:  res.status,
			Reason:      res.reason,
		})
		if err != nil {
			return err
		}

		for _, d := range res.days {
			payload, hash, err := store.EncodePayload(ir.KindAbsenceDay, d.day)
			if err != nil {
				return err
			}
			err = e.store.WriteOperation(ctx, store.Operation{
				RunID:       sc.RunID,
				Kind:        ir.KindAbsenceDay,
				Action:      store.ActionCreate,
				EmployeeID:  op.EmployeeID,
				TargetID:    d.day.AbsenceId,
				Payload:     payload,
				PayloadHash: hash,
				Outcome:     d.outcome,
				HTTPStatus:  d.status,
				Reason:      d.reason,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
