package harness

import (
	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// LedgerEntry is the comparable part of one ledger row. Payloads and
// hashes are left out; the calls show what was sent.
type LedgerEntry struct {
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	EmployeeID string `json:"employee_id"`
	TargetID   string `json:"target_id,omitempty"`
	Outcome    string `json:"outcome"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func ledgerEntry(op store.Operation) LedgerEntry {
	return LedgerEntry{
		Kind:       string(op.Kind),
		Action:     string(op.Action),
		EmployeeID: op.EmployeeID,
		TargetID:   op.TargetID,
		Outcome:    string(op.Outcome),
		HTTPStatus: op.HTTPStatus,
		Reason:     op.Reason,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Calls lists the writes both fixture systems received, in order.
	Calls []string `json:"calls"`

	// Ledger holds the run's operations in ledger order.
	Ledger []LedgerEntry `json:"ledger"`

	// Counts is the report tally per record kind.
	Counts map[ir.RecordKind]*engine.Counts `json:"counts"`

	// Status is the recorded run status. Empty when the run never started.
	Status string `json:"status"`

	// RunError is the error the run returned, if any.
	RunError string `json:"run_error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Calls:  []string{},
		Ledger: []LedgerEntry{},
		Counts: make(map[ir.RecordKind]*engine.Counts),
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
