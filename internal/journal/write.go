package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BeginRun inserts a run with status running.
// Uses ON CONFLICT(run_id) DO NOTHING - a repeated ID keeps the first row.
func (j *Journal) BeginRun(ctx context.Context, run Run) error {
	status := run.Status
	if status == "" {
		status = StatusRunning
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, mode, uri, db_name, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		run.ID,
		run.Mode,
		run.URI,
		run.Database,
		string(status),
		run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// Record appends an entry to a run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// Note: the run referenced by RunID must exist (foreign key constraint).
func (j *Journal) Record(ctx context.Context, e Entry) error {
	detail, err := marshalDetail(e.Detail)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries (run_id, seq, action, level, message, detail)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		e.RunID,
		e.Seq,
		e.Action,
		e.Level,
		e.Message,
		detail,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// FinishRun sets the final status of a run, along with uri and database once
// they are known. A nil cause clears the error column.
func (j *Journal) FinishRun(ctx context.Context, runID string, status Status, uri, database string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := j.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, error = ?,
		    uri = CASE WHEN ? = '' THEN uri ELSE ? END,
		    db_name = CASE WHEN ? = '' THEN db_name ELSE ? END
		WHERE run_id = ?
	`, string(status), msg, uri, uri, database, database, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// marshalDetail encodes the detail map. encoding/json sorts map keys, so the
// stored text is stable for equal maps.
func marshalDetail(d map[string]string) (string, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(b), nil
}
