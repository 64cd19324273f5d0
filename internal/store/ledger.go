package store

import (
	"time"

	"github.com/roach88/hrsync/internal/ir"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Action is what the run decided to do with one record.
type Action string

const (
	ActionNone       Action = "none"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionReactivate Action = "reactivate"
	ActionPush       Action = "push"
	ActionSkip       Action = "skip"
)

// Outcome is what happened to a planned action.
type Outcome string

const (
	// OutcomeUnchanged: source and destination already agree.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomePlanned: recorded by a dry run, never sent.
	OutcomePlanned Outcome = "planned"

	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Run is one row of the runs table.
type Run struct {
	ID         string
	Country    ir.Country
	RunType    int
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Error      string
}

// Operation is one ledger entry. Payload is canonical JSON; PayloadHash is
// ir.RecordHash of the same payload.
type Operation struct {
	Seq         int64
	RunID       string
	Kind        ir.RecordKind
	Action      Action
	EmployeeID  string
	TargetID    string
	Payload     string
	PayloadHash string
	Outcome     Outcome
	HTTPStatus  int
	Reason      string
}

// CountRow is one (kind, action, outcome) bucket of a run.
type CountRow struct {
	Kind    ir.RecordKind
	Action  Action
	Outcome Outcome
	N       int
}
