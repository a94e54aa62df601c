package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("execution not found")

// ExecutionRecord is the journaled outcome of one task execution.
type ExecutionRecord struct {
	ID         string
	Role       string
	Task       string
	State      string
	Result     string
	Error      string
	Iterations int
	ToolCalls  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal keeps a history of finished executions in sqlite.
type Journal struct {
	DB *sql.DB
}

func OpenJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}
	// Serialize access; sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	query := `CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		role TEXT,
		task TEXT,
		state TEXT,
		result TEXT,
		error TEXT,
		iterations INTEGER,
		tool_calls INTEGER,
		started_at TEXT,
		finished_at TEXT
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create journal schema")
	}

	return &Journal{DB: db}, nil
}

func (j *Journal) RecordExecution(ctx context.Context, rec ExecutionRecord) error {
	query := `INSERT OR REPLACE INTO executions
		(id, role, task, state, result, error, iterations, tool_calls, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.DB.ExecContext(ctx, query,
		rec.ID, rec.Role, rec.Task, rec.State, rec.Result, rec.Error,
		rec.Iterations, rec.ToolCalls,
		formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	)
	return errors.Wrap(err, "record execution")
}

// Recent returns up to limit executions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]ExecutionRecord, error) {
	query := `SELECT id, role, task, state, result, error, iterations, tool_calls, started_at, finished_at
		FROM executions ORDER BY started_at DESC LIMIT ?`
	rows, err := j.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query executions")
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate executions")
}

func (j *Journal) Get(ctx context.Context, id string) (ExecutionRecord, error) {
	query := `SELECT id, role, task, state, result, error, iterations, tool_calls, started_at, finished_at
		FROM executions WHERE id = ?`
	rec, err := scanRecord(j.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ExecutionRecord{}, errors.Wrap(ErrNotFound, id)
	}
	return rec, err
}

func (j *Journal) Close() error {
	return j.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (ExecutionRecord, error) {
	var rec ExecutionRecord
	var started, finished string
	err := s.Scan(&rec.ID, &rec.Role, &rec.Task, &rec.State, &rec.Result, &rec.Error,
		&rec.Iterations, &rec.ToolCalls, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, errors.Wrap(err, "scan execution")
	}
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finished)
	return rec, nil
}

// timeLayout is fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
