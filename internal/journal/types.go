package journal

import "time"

// Status is the outcome of a run.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Run is one bootstrap of the process.
type Run struct {
	ID        string    `json:"runId"`
	Mode      string    `json:"mode"`
	URI       string    `json:"uri,omitempty"`
	Database  string    `json:"database,omitempty"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// Entry is one step within a run.
type Entry struct {
	RunID   string            `json:"runId"`
	Seq     int64             `json:"seq"`
	Action  string            `json:"action"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Detail  map[string]string `json:"detail,omitempty"`
}
