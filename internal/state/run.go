package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the outcome of a run or a step.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// ErrRunNotFound is returned when a run with the given ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of an operation.
type Run struct {
	ID          string
	Command     string
	Environment string
	Project     string
	Args        []string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Status      RunStatus
	Error       string
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Step is the recorded outcome of one step of a run.
type Step struct {
	RunID      string
	Seq        int
	Name       string
	Status     RunStatus
	Error      string
	FinishedAt time.Time
}

// StartRun records a new running run and returns it.
func (db *DB) StartRun(command, environment, project string, args []string) (*Run, error) {
	if args == nil {
		args = []string{}
	}
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode args: %w", err)
	}

	run := &Run{
		ID:          NewRunID(),
		Command:     command,
		Environment: environment,
		Project:     project,
		Args:        args,
		StartedAt:   time.Now().UTC(),
		Status:      StatusRunning,
	}

	_, err = db.Exec(`
		INSERT INTO runs (id, command, environment, project, args, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Command,
		run.Environment,
		run.Project,
		string(encodedArgs),
		formatTime(run.StartedAt),
		string(run.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run succeeded, or failed with runErr.
func (db *DB) FinishRun(id string, runErr error) error {
	status, errText := outcome(runErr)

	result, err := db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, error = ?
		WHERE id = ?`,
		formatTime(time.Now().UTC()),
		string(status),
		nullString(errText),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RecordStep appends the outcome of a step to a run.
func (db *DB) RecordStep(runID, name string, stepErr error) error {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return ErrRunNotFound
	}

	status, errText := outcome(stepErr)
	_, err = db.Exec(`
		INSERT INTO run_steps (run_id, seq, name, status, error, finished_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM run_steps WHERE run_id = ?), ?, ?, ?, ?)`,
		runID,
		runID,
		name,
		string(status),
		nullString(errText),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. IDs are matched case-insensitively.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, command, environment, project, args,
		       started_at, finished_at, status, error
		FROM runs WHERE id = ?`, NormalizeID(id))

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListOptions specifies filters for listing runs.
type ListOptions struct {
	Environment string // Filter by environment (exact match)
	Limit       int    // Maximum number of runs; 0 means no limit
}

// ListRuns returns runs matching the given filters, newest first.
func (db *DB) ListRuns(opts ListOptions) ([]*Run, error) {
	query := `
		SELECT id, command, environment, project, args,
		       started_at, finished_at, status, error
		FROM runs
	`

	var conditions []string
	var args []any

	if opts.Environment != "" {
		conditions = append(conditions, "environment = ?")
		args = append(args, opts.Environment)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Steps returns the recorded steps of a run in order.
func (db *DB) Steps(runID string) ([]*Step, error) {
	rows, err := db.Query(`
		SELECT run_id, seq, name, status, error, finished_at
		FROM run_steps WHERE run_id = ? ORDER BY seq`, NormalizeID(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		var step Step
		var errText sql.NullString
		var finishedAt string
		if err := rows.Scan(&step.RunID, &step.Seq, &step.Name, &step.Status, &errText, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		step.Error = errText.String
		if step.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// RunRecorder records the steps of a single run.
type RunRecorder struct {
	DB    *DB
	RunID string
}

// RecordStep records a step of the run.
func (r *RunRecorder) RecordStep(name string, err error) error {
	return r.DB.RecordStep(r.RunID, name, err)
}

// Finish marks the run finished with err.
func (r *RunRecorder) Finish(err error) error {
	return r.DB.FinishRun(r.RunID, err)
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row into a Run struct.
func scanRun(s scanner) (*Run, error) {
	var run Run
	var args, startedAt string
	var finishedAt, errText sql.NullString

	err := s.Scan(
		&run.ID,
		&run.Command,
		&run.Environment,
		&run.Project,
		&args,
		&startedAt,
		&finishedAt,
		&run.Status,
		&errText,
	)
	if err != nil {
		return nil, err
	}

	run.Error = errText.String

	if err := json.Unmarshal([]byte(args), &run.Args); err != nil {
		return nil, fmt.Errorf("failed to decode args: %w", err)
	}

	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
	}

	return &run, nil
}

func outcome(err error) (RunStatus, string) {
	if err != nil {
		return StatusFailed, err.Error()
	}
	return StatusSucceeded, ""
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString converts an empty string to sql.NullString for optional fields.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
