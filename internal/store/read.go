package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hrsync/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

type scanner interface {
	Scan(dest ...any) error
}

const runColumns = `id, country, run_type, dry_run, started_at, finished_at, status, error`

// ReadRun returns one run.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns the most recent runs first, at most limit of them
// (all when limit <= 0).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id COLLATE BINARY DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row scanner) (Run, error) {
	var (
		run             Run
		country, status string
		dryRun          int
		startedAt       string
		finishedAt      sql.NullString
	)
	if err := row.Scan(&run.ID, &country, &run.RunType, &dryRun, &startedAt, &finishedAt, &status, &run.Error); err != nil {
		return Run{}, err
	}
	run.Country = ir.Country(country)
	run.Status = RunStatus(status)
	run.DryRun = dryRun != 0

	t, err := parseTime(startedAt)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = t
	if finishedAt.Valid {
		f, err := parseTime(finishedAt.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &f
	}
	return run, nil
}

// ReadOperations returns a run's operations in insertion order. Empty
// kind reads every kind.
func (s *Store) ReadOperations(ctx context.Context, runID string, kind ir.RecordKind) ([]Operation, error) {
	query := `
		SELECT seq, run_id, kind, action, employee_id, target_id, payload, payload_hash, outcome, http_status, reason
		FROM operations
		WHERE run_id = ?`
	args := []any{runID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY seq ASC`

	return s.queryOperations(ctx, query, args...)
}

// ReadEmployeeHistory returns every operation that touched an employee,
// across runs, oldest first.
func (s *Store) ReadEmployeeHistory(ctx context.Context, employeeID string) ([]Operation, error) {
	return s.queryOperations(ctx, `
		SELECT seq, run_id, kind, action, employee_id, target_id, payload, payload_hash, outcome, http_status, reason
		FROM operations
		WHERE employee_id = ?
		ORDER BY seq ASC
	`, employeeID)
}

func (s *Store) queryOperations(ctx context.Context, query string, args ...any) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []Operation{}
	for rows.Next() {
		var (
			op                    Operation
			kind, action, outcome string
		)
		if err := rows.Scan(&op.Seq, &op.RunID, &kind, &action, &op.EmployeeID, &op.TargetID,
			&op.Payload, &op.PayloadHash, &outcome, &op.HTTPStatus, &op.Reason); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Kind = ir.RecordKind(kind)
		op.Action = Action(action)
		op.Outcome = Outcome(outcome)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// ReadCounts buckets a run's operations by kind, action and outcome.
func (s *Store) ReadCounts(ctx context.Context, runID string) ([]CountRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, action, outcome, COUNT(*)
		FROM operations
		WHERE run_id = ?
		GROUP BY kind, action, outcome
		ORDER BY kind COLLATE BINARY, action COLLATE BINARY, outcome COLLATE BINARY
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := []CountRow{}
	for rows.Next() {
		var (
			c                     CountRow
			kind, action, outcome string
		)
		if err := rows.Scan(&kind, &action, &outcome, &c.N); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		c.Kind = ir.RecordKind(kind)
		c.Action = Action(action)
		c.Outcome = Outcome(outcome)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
