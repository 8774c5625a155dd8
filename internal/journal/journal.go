// Package journal records pipeline runs in a small SQLite database: one row
// per run, one per finished stage, and one per file a stage produced. It is
// bookkeeping only; no stage reads it back to decide what to do.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/backmassage/metamirror/internal/journal/migrations"
)

// Run and stage statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one pipeline invocation.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time // Zero while running.
	Status     string
	Error      string
	ErrorCode  string
}

// StageEvent is one finished stage of a run.
type StageEvent struct {
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
}

// Output is one file a stage wrote.
type Output struct {
	Stage string
	Path  string
	Rows  int64
	Bytes int64
}

// Journal is an open run journal.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if absent) the journal database at path and applies
// pending migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := &Journal{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}
	if err := j.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

func (j *Journal) migrate(fsys fs.FS) error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := j.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := j.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// StartRun inserts a new running run and returns it.
func (j *Journal) StartRun(ctx context.Context, command string) (Run, error) {
	r := Run{
		ID:        uuid.New().String(),
		Command:   command,
		StartedAt: j.now(),
		Status:    StatusRunning,
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, status) VALUES (?, ?, ?, ?)`,
		r.ID, r.Command, r.StartedAt, r.Status)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return r, nil
}

// FinishRun marks a run finished. A nil runErr records success; otherwise
// the message and code are stored.
func (j *Journal) FinishRun(ctx context.Context, id string, runErr error, code string) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ?, error_code = ? WHERE id = ?`,
		j.now(), status, nullString(msg), nullString(code), id)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}

// RecordStage stores one finished stage of run id.
func (j *Journal) RecordStage(ctx context.Context, id string, ev StageEvent) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO stage_events (run_id, stage, started_at, finished_at, status, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, ev.Stage, ev.StartedAt.UTC(), ev.FinishedAt.UTC(), ev.Status, nullString(ev.Error))
	if err != nil {
		return fmt.Errorf("inserting stage event: %w", err)
	}
	return nil
}

// RecordOutputs stores the files a stage wrote, in one transaction.
func (j *Journal) RecordOutputs(ctx context.Context, id string, outs []Output) error {
	if len(outs) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outputs (run_id, stage, path, rows, bytes) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outs {
		if _, err := stmt.ExecContext(ctx, id, o.Stage, o.Path, o.Rows, o.Bytes); err != nil {
			return fmt.Errorf("inserting output %s: %w", o.Path, err)
		}
	}
	return tx.Commit()
}

// LatestRuns returns up to limit runs, newest first.
func (j *Journal) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, command, started_at, finished_at, status, error, error_code
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, command, started_at, finished_at, status, error, error_code
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// Stages returns the stage events of run id in recording order.
func (j *Journal) Stages(ctx context.Context, id string) ([]StageEvent, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT stage, started_at, finished_at, status, error
		 FROM stage_events WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying stage events: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var ev StageEvent
		var msg sql.NullString
		if err := rows.Scan(&ev.Stage, &ev.StartedAt, &ev.FinishedAt, &ev.Status, &msg); err != nil {
			return nil, fmt.Errorf("scanning stage event: %w", err)
		}
		ev.Error = msg.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Outputs returns the files recorded for run id in recording order.
func (j *Journal) Outputs(ctx context.Context, id string) ([]Output, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT stage, path, rows, bytes FROM outputs WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying outputs: %w", err)
	}
	defer rows.Close()

	var outs []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Stage, &o.Path, &o.Rows, &o.Bytes); err != nil {
			return nil, fmt.Errorf("scanning output: %w", err)
		}
		outs = append(outs, o)
	}
	return outs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var finished sql.NullTime
	var msg, code sql.NullString
	if err := s.Scan(&r.ID, &r.Command, &r.StartedAt, &finished, &r.Status, &msg, &code); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	r.Error = msg.String
	r.ErrorCode = code.String
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
