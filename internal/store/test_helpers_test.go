package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/hrsync/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

// createTestRun begins a run and returns it.
func createTestRun(t *testing.T, s *Store, id string, country ir.Country, runType int) Run {
	t.Helper()
	run := Run{ID: id, Country: country, RunType: runType, StartedAt: testStart}
	if err := s.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return run
}

// createTestOperation builds an operation with a real canonical payload.
func createTestOperation(t *testing.T, runID string, kind ir.RecordKind, action Action, employee string, payload any) Operation {
	t.Helper()
	data, hash, err := EncodePayload(kind, payload)
	if err != nil {
		t.Fatalf("EncodePayload() failed: %v", err)
	}
	return Operation{
		RunID:       runID,
		Kind:        kind,
		Action:      action,
		EmployeeID:  employee,
		Payload:     data,
		PayloadHash: hash,
		Outcome:     OutcomeSubmitted,
	}
}
