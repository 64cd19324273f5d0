package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/transform"
)

// SyncError is an error detected while running a sync.
//
// It carries enough context to find the affected record in the ledger.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Message is a human-readable description.
	Message string

	Country  ir.Country
	Kind     ir.RecordKind
	Employee string

	// Err is the underlying cause, if any.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeMalformed indicates a source record could not be projected.
	ErrCodeMalformed SyncErrorCode = "RECORD_MALFORMED"

	// ErrCodeUpstream indicates a read or write against either system failed.
	ErrCodeUpstream SyncErrorCode = "UPSTREAM_FAILED"

	// ErrCodeRateLimited indicates a 429 that survived every retry.
	ErrCodeRateLimited SyncErrorCode = "RATE_LIMITED"

	// ErrCodeBudgetExceeded indicates a plan holds more mutations than allowed.
	ErrCodeBudgetExceeded SyncErrorCode = "BUDGET_EXCEEDED"

	// ErrCodeAuth indicates a 401 or 403 from either system.
	ErrCodeAuth SyncErrorCode = "AUTH_FAILED"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Country != "" {
		msg += fmt.Sprintf(" (country=%s", e.Country)
		if e.Kind != "" {
			msg += ", kind=" + string(e.Kind)
		}
		if e.Employee != "" {
			msg += ", employee=" + e.Employee
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error { return e.Err }

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsMalformed returns true if err is a malformed source record.
// Matches both SyncError and transform.MalformedError.
func IsMalformed(err error) bool {
	return hasCode(err, ErrCodeMalformed) || transform.IsMalformed(err)
}

// IsBudgetError returns true if err is an exceeded operation budget.
// Matches both SyncError with ErrCodeBudgetExceeded and BudgetExceededError.
func IsBudgetError(err error) bool {
	if hasCode(err, ErrCodeBudgetExceeded) {
		return true
	}
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// IsFatal returns true if err must stop the run.
func IsFatal(err error) bool {
	return hasCode(err, ErrCodeAuth) || IsBudgetError(err) || client.IsAuth(err)
}

// classify wraps an upstream error in a SyncError with the matching code.
func classify(err error, c ir.Country, kind ir.RecordKind, employee, message string) *SyncError {
	code := ErrCodeUpstream
	switch {
	case client.IsAuth(err):
		code = ErrCodeAuth
	case client.IsRateLimited(err):
		code = ErrCodeRateLimited
	case transform.IsMalformed(err):
		code = ErrCodeMalformed
	}
	return &SyncError{
		Code:     code,
		Message:  message,
		Country:  c,
		Kind:     kind,
		Employee: employee,
		Err:      err,
	}
}

// NewBudgetError creates a SyncError for an exceeded operation budget.
func NewBudgetError(c ir.Country, kind ir.RecordKind, planned, limit int) *SyncError {
	return &SyncError{
		Code:    ErrCodeBudgetExceeded,
		Message: fmt.Sprintf("plan holds %d mutations, limit is %d", planned, limit),
		Country: c,
		Kind:    kind,
		Err:     &BudgetExceededError{Kind: kind, Planned: planned, Limit: limit},
	}
}
