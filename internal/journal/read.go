package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns a run and its entries ordered by seq.
// Returns empty entries (not nil) for a run with no steps.
func (j *Journal) ReadRun(ctx context.Context, runID string) (Run, []Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, mode, uri, db_name, status, error, started_at
		FROM runs
		WHERE run_id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, nil, err
	}

	entries, err := j.readEntries(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, entries, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, mode, uri, db_name, status, error, started_at
		FROM runs
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
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

func (j *Journal) readEntries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, action, level, message, detail
		FROM entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var detail string
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Action, &e.Level, &e.Message, &detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal entry detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var status, started string
	if err := s.Scan(&run.ID, &run.Mode, &run.URI, &run.Database, &status, &run.Error, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)

	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	run.StartedAt = t
	return run, nil
}
