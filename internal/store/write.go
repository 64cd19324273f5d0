package store

import (
	"context"
	"fmt"
	"time"
)

// BeginRun inserts a run in the running state.
// Uses ON CONFLICT(id) DO NOTHING so a retried begin is harmless.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = RunRunning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, country, run_type, dry_run, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		string(run.Country),
		run.RunType,
		boolToInt(run.DryRun),
		formatTime(run.StartedAt),
		string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the final status of a run. Finishing an unknown run
// is an error.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, finishedAt time.Time, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, error = ?
		WHERE id = ?
	`, string(status), formatTime(finishedAt), msg, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

// WriteOperation appends an operation to a run.
// Duplicate (run, kind, action, employee, target, payload hash, reason)
// tuples are ignored. The run must exist (foreign key).
func (s *Store) WriteOperation(ctx context.Context, op Operation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations
		(run_id, kind, action, employee_id, target_id, payload, payload_hash, outcome, http_status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		op.RunID,
		string(op.Kind),
		string(op.Action),
		op.EmployeeID,
		op.TargetID,
		op.Payload,
		op.PayloadHash,
		string(op.Outcome),
		op.HTTPStatus,
		op.Reason,
	)
	if err != nil {
		return fmt.Errorf("write operation: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
