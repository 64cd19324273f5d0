package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/hrsync/internal/ir"
)

// DefaultMaxOperations is the default mutation limit per record kind.
const DefaultMaxOperations = 500

// OperationBudget counts mutations per record kind and enforces a limit.
//
// A source feed that comes back truncated makes every destination record
// look like a delete. The budget refuses such a plan before anything is
// sent.
//
// Each plan gets its own OperationBudget; it is not safe for concurrent use.
type OperationBudget struct {
	max     int
	current map[ir.RecordKind]int
}

// NewOperationBudget creates a budget allowing max mutations per kind.
func NewOperationBudget(max int) *OperationBudget {
	return &OperationBudget{
		max:     max,
		current: make(map[ir.RecordKind]int),
	}
}

// Check counts one mutation of kind and validates against the limit.
//
// Returns BudgetExceededError once the count passes the limit.
func (b *OperationBudget) Check(kind ir.RecordKind) error {
	b.current[kind]++
	if n := b.current[kind]; n > b.max {
		return &BudgetExceededError{Kind: kind, Planned: n, Limit: b.max}
	}
	return nil
}

// Current returns the mutations counted for kind.
func (b *OperationBudget) Current(kind ir.RecordKind) int {
	return b.current[kind]
}

// Max returns the per-kind limit.
func (b *OperationBudget) Max() int {
	return b.max
}

// BudgetExceededError is returned when a plan holds too many mutations of
// one kind. Nothing of that plan is submitted.
type BudgetExceededError struct {
	Kind    ir.RecordKind
	Planned int
	Limit   int
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s plan exceeds operation budget: %d > %d", e.Kind, e.Planned, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
