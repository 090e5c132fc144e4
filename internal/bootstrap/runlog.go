package bootstrap

import (
	"context"
	"log/slog"

	"github.com/roach88/formdb/internal/journal"
)

// Log actions.
const (
	ActionInit   = "init"
	ActionSchema = "schema"
	ActionSeed   = "seed"
)

// runLog writes each step to the logger and the recorder.
type runLog struct {
	id     string
	logger *slog.Logger
	rec    Recorder
	clock  seqClock
}

// step logs msg with the action attribute and key/value pairs, then records
// it. kv must hold an even number of strings.
func (r *runLog) step(ctx context.Context, level slog.Level, action, msg string, kv ...string) {
	args := make([]any, 0, len(kv)+4)
	args = append(args, slog.String("action", action))
	if r.id != "" {
		args = append(args, slog.String("run", r.id))
	}
	var detail map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		args = append(args, slog.String(kv[i], kv[i+1]))
		if detail == nil {
			detail = make(map[string]string, len(kv)/2)
		}
		detail[kv[i]] = kv[i+1]
	}
	r.logger.Log(ctx, level, msg, args...)

	if r.id == "" {
		return
	}
	err := r.rec.Record(ctx, journal.Entry{
		RunID:   r.id,
		Seq:     r.clock.Next(),
		Action:  action,
		Level:   level.String(),
		Message: msg,
		Detail:  detail,
	})
	if err != nil {
		r.logger.Warn("journal write failed", "run", r.id, "error", err)
	}
}

func (r *runLog) info(ctx context.Context, action, msg string, kv ...string) {
	r.step(ctx, slog.LevelInfo, action, msg, kv...)
}

func (r *runLog) warn(ctx context.Context, action, msg string, kv ...string) {
	r.step(ctx, slog.LevelWarn, action, msg, kv...)
}

func (r *runLog) fail(ctx context.Context, action, msg string, kv ...string) {
	r.step(ctx, slog.LevelError, action, msg, kv...)
}
