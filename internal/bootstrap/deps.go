package bootstrap

import (
	"context"

	"github.com/roach88/formdb/internal/agency"
	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/ephemeral"
	"github.com/roach88/formdb/internal/journal"
	"github.com/roach88/formdb/internal/lifecycle"
	"github.com/roach88/formdb/internal/model"
	"github.com/roach88/formdb/internal/topology"
)

// Conn is the live document-store connection the bootstrapper drives.
// *docstore.Conn implements it.
type Conn interface {
	Events() *lifecycle.Monitor
	Topology() topology.Description
	Models() *model.Registry
	EnsureIndexes(ctx context.Context) error
	CountAgencies(ctx context.Context) (int64, error)
	UpsertAgency(ctx context.Context, a agency.Agency) (inserted bool, err error)
	InsertAgencies(ctx context.Context, agencies []agency.Agency) error
	Close(ctx context.Context) error
}

// Connector opens connections.
type Connector interface {
	Connect(ctx context.Context, uri string, opts config.DriverOptions, models *model.Registry) (Conn, error)
}

// ConnectFunc adapts a function to Connector.
type ConnectFunc func(ctx context.Context, uri string, opts config.DriverOptions, models *model.Registry) (Conn, error)

func (f ConnectFunc) Connect(ctx context.Context, uri string, opts config.DriverOptions, models *model.Registry) (Conn, error) {
	return f(ctx, uri, opts, models)
}

// Instance is an ephemeral database owned by the process.
// *ephemeral.Instance implements it.
type Instance interface {
	URI() string
	Stop()
}

// Launcher starts ephemeral instances.
type Launcher interface {
	Launch(ctx context.Context, spec ephemeral.Spec) (Instance, error)
}

// LaunchFunc adapts a function to Launcher.
type LaunchFunc func(ctx context.Context, spec ephemeral.Spec) (Instance, error)

func (f LaunchFunc) Launch(ctx context.Context, spec ephemeral.Spec) (Instance, error) {
	return f(ctx, spec)
}

// Recorder persists runs. *journal.Journal implements it.
type Recorder interface {
	BeginRun(ctx context.Context, run journal.Run) error
	Record(ctx context.Context, e journal.Entry) error
	FinishRun(ctx context.Context, runID string, status journal.Status, uri, database string, cause error) error
}

type nopRecorder struct{}

func (nopRecorder) BeginRun(context.Context, journal.Run) error { return nil }
func (nopRecorder) Record(context.Context, journal.Entry) error { return nil }
func (nopRecorder) FinishRun(context.Context, string, journal.Status, string, string, error) error {
	return nil
}
