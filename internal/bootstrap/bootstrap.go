package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/docstore"
	"github.com/roach88/formdb/internal/ephemeral"
	"github.com/roach88/formdb/internal/journal"
	"github.com/roach88/formdb/internal/metrics"
	"github.com/roach88/formdb/internal/model"
	"github.com/roach88/formdb/internal/topology"
)

// connectAttempts is the first attempt plus one immediate retry.
const connectAttempts = 2

// Deps are the bootstrapper's collaborators. Connector is required. Launcher
// is required only in ephemeral mode. The rest default to no-ops.
type Deps struct {
	Connector Connector
	Launcher  Launcher
	Recorder  Recorder
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	IDs       IDGenerator
	Now       func() time.Time
}

// Bootstrapper runs the startup sequence.
type Bootstrapper struct {
	connector Connector
	launcher  Launcher
	rec       Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	ids       IDGenerator
	now       func() time.Time
}

// New returns a Bootstrapper with defaults filled in.
func New(d Deps) *Bootstrapper {
	b := &Bootstrapper{
		connector: d.Connector,
		launcher:  d.Launcher,
		rec:       d.Recorder,
		metrics:   d.Metrics,
		logger:    d.Logger,
		ids:       d.IDs,
		now:       d.Now,
	}
	if b.rec == nil {
		b.rec = nopRecorder{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.ids == nil {
		b.ids = UUIDv7Generator{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Resolved is the effective connection configuration after fallback
// resolution. It is derived from, and never written back to, config.Config.
type Resolved struct {
	Mode     config.Mode
	URI      string
	Database string
	Options  config.DriverOptions
	// Instance is the ephemeral database started for this resolution, nil in
	// connected mode. The caller owns it.
	Instance Instance
}

// Result is a ready connection and what the bootstrap did to reach it.
type Result struct {
	RunID    string
	Mode     config.Mode
	URI      string // credentials redacted
	Database string
	Conn     Conn
	Instance Instance
	Models   *model.Registry
	Topology topology.Description
	Repaired []string // models downgraded to secondaryPreferred
	Seeded   []string // short names of inserted agencies
}

// Close closes the connection, then stops the ephemeral instance if any.
func (r *Result) Close(ctx context.Context) error {
	var err error
	if r.Conn != nil {
		err = r.Conn.Close(ctx)
	}
	if r.Instance != nil {
		r.Instance.Stop()
	}
	return err
}

// Inspection is a dry run: what Run would see and repair.
type Inspection struct {
	Mode     config.Mode
	URI      string
	Database string
	Topology topology.Description
	Models   []model.Model
	Plan     []string
}

// Resolve turns cfg into the effective connection configuration, launching
// an ephemeral instance when no connection string is set.
func (b *Bootstrapper) Resolve(ctx context.Context, cfg *config.Config) (Resolved, error) {
	return b.resolve(ctx, cfg, &runLog{logger: b.logger, rec: b.rec})
}

func (b *Bootstrapper) resolve(ctx context.Context, cfg *config.Config, r *runLog) (Resolved, error) {
	if cfg.Mode() == config.ModeConnected {
		return Resolved{
			Mode:     config.ModeConnected,
			URI:      cfg.DB.URI,
			Database: docstore.DatabaseFromURI(cfg.DB.URI),
			Options:  cfg.DB.Options,
		}, nil
	}

	r.warn(ctx, ActionInit, "!!! WARNING !!! No database configuration detected. "+
		"Using mock development database instead. This should NEVER be seen in production.")

	if cfg.Fallback.BinaryVersion == "" {
		r.fail(ctx, ActionInit, "Environment var "+config.EnvMongoBinaryVersion+" is missing")
		return Resolved{}, &PrerequisiteError{Env: config.EnvMongoBinaryVersion}
	}
	if b.launcher == nil {
		return Resolved{}, errors.New("ephemeral mode requires a launcher")
	}

	spec := ephemeral.SpecFromConfig(cfg.Fallback)
	inst, err := b.launcher.Launch(ctx, spec)
	if err != nil {
		r.fail(ctx, ActionInit, "ephemeral mongod failed to start", "version", spec.Version, "error", err.Error())
		return Resolved{}, fmt.Errorf("launch ephemeral mongod: %w", err)
	}
	b.metrics.EphemeralStart()
	r.info(ctx, ActionInit, "ephemeral mongod started", "version", spec.Version, "uri", inst.URI())

	return Resolved{
		Mode:     config.ModeEphemeral,
		URI:      inst.URI(),
		Database: docstore.DatabaseFromURI(inst.URI()),
		Options:  cfg.DB.Options,
		Instance: inst,
	}, nil
}

// Run executes the startup sequence and returns a ready connection.
// The caller owns the result and must Close it.
func (b *Bootstrapper) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	start := b.now()
	r := &runLog{id: b.ids.Generate(), logger: b.logger, rec: b.rec}

	if err := b.rec.BeginRun(ctx, journal.Run{ID: r.id, Mode: string(cfg.Mode()), StartedAt: start}); err != nil {
		b.logger.Warn("journal write failed", "run", r.id, "error", err)
	}

	res, err := b.run(ctx, cfg, r)

	status, uri, database := journal.StatusFailed, "", ""
	if err == nil {
		status, uri, database = journal.StatusOK, res.URI, res.Database
		b.metrics.ObserveBootstrap(b.now().Sub(start))
	}
	if ferr := b.rec.FinishRun(context.WithoutCancel(ctx), r.id, status, uri, database, err); ferr != nil {
		b.logger.Warn("journal write failed", "run", r.id, "error", ferr)
	}
	return res, err
}

func (b *Bootstrapper) run(ctx context.Context, cfg *config.Config, r *runLog) (*Result, error) {
	models, err := registry(cfg)
	if err != nil {
		return nil, err
	}

	resolved, err := b.resolve(ctx, cfg, r)
	if err != nil {
		return nil, err
	}

	conn, err := b.connect(ctx, r, resolved, models)
	if err != nil {
		stop(resolved.Instance)
		return nil, err
	}

	res := &Result{
		RunID:    r.id,
		Mode:     resolved.Mode,
		URI:      docstore.RedactURI(resolved.URI),
		Database: resolved.Database,
		Conn:     conn,
		Instance: resolved.Instance,
		Models:   conn.Models(),
	}

	b.observe(conn)

	if err := b.repair(ctx, r, res); err != nil {
		b.abort(ctx, r, res)
		return nil, err
	}
	if err := b.seed(ctx, r, cfg, res); err != nil {
		b.abort(ctx, r, res)
		return nil, err
	}

	r.info(ctx, ActionInit, "bootstrap complete", "mode", string(res.Mode), "database", res.Database)
	return res, nil
}

// Inspect resolves, connects and plans the read-preference repair without
// applying it or seeding. Everything it opened is closed before it returns.
func (b *Bootstrapper) Inspect(ctx context.Context, cfg *config.Config) (*Inspection, error) {
	r := &runLog{logger: b.logger, rec: b.rec}

	models, err := registry(cfg)
	if err != nil {
		return nil, err
	}
	resolved, err := b.resolve(ctx, cfg, r)
	if err != nil {
		return nil, err
	}
	defer stop(resolved.Instance)

	conn, err := b.connect(ctx, r, resolved, models)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			b.logger.Warn("close after inspect", "error", err)
		}
	}()

	desc := conn.Topology()
	all := conn.Models().All()
	return &Inspection{
		Mode:     resolved.Mode,
		URI:      docstore.RedactURI(resolved.URI),
		Database: resolved.Database,
		Topology: desc,
		Models:   all,
		Plan:     topology.PlanReadPrefRepair(desc, all),
	}, nil
}

// connect tries twice with no backoff. A third attempt is never made.
func (b *Bootstrapper) connect(ctx context.Context, r *runLog, res Resolved, models *model.Registry) (Conn, error) {
	redacted := docstore.RedactURI(res.URI)

	var lastErr error
	attempts := 0
	for attempts < connectAttempts {
		attempts++
		conn, err := b.connector.Connect(ctx, res.URI, res.Options, models)
		b.metrics.ConnectAttempt(err)
		if err == nil {
			r.info(ctx, ActionInit, "@MongoDB: connection established",
				"uri", redacted, "attempt", strconv.Itoa(attempts))
			return conn, nil
		}
		lastErr = err
		r.fail(ctx, ActionInit, "@MongoDB: Error caught while connecting",
			"uri", redacted, "attempt", strconv.Itoa(attempts), "error", err.Error())
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &ConnectError{URI: redacted, Attempts: attempts, Err: lastErr}
}

// observe attaches the persistent lifecycle observers. They only log and
// count: the driver owns reconnection.
func (b *Bootstrapper) observe(conn Conn) {
	events := conn.Events()
	events.OnError(func(err error) {
		b.metrics.ConnectionEvent(metrics.EventError)
		b.logger.Error("@MongoDB: DB connection error", "action", ActionInit, "error", err)
	})
	events.OnOpen(func() {
		b.metrics.ConnectionEvent(metrics.EventOpen)
		b.logger.Info("@MongoDB: DB connected", "action", ActionInit)
	})
	events.OnClose(func(reason string) {
		b.metrics.ConnectionEvent(metrics.EventClose)
		b.logger.Info("@MongoDB: DB disconnected: "+reason, "action", ActionInit)
	})
}

// repair plans against the current topology and applies the plan to the
// connection's model registry.
func (b *Bootstrapper) repair(ctx context.Context, r *runLog, res *Result) error {
	res.Topology = res.Conn.Topology()
	plan := topology.PlanReadPrefRepair(res.Topology, res.Models.All())
	if plan == nil {
		return nil
	}

	r.warn(ctx, ActionSchema, "ReplicaSetWithPrimary cluster has no secondary nodes. "+
		"Forcing secondary read preference to secondaryPreferred.")
	changed, err := topology.ApplyReadPrefRepair(res.Models, plan)
	if err != nil {
		r.fail(ctx, ActionSchema, "read preference repair failed", "error", err.Error())
		return fmt.Errorf("repair read preference: %w", err)
	}
	for _, name := range changed {
		r.info(ctx, ActionSchema, "read preference downgraded", "model", name,
			"from", string(model.Secondary), "to", string(model.SecondaryPreferred))
	}
	b.metrics.ReadPrefDowngrades(len(changed))
	res.Repaired = changed
	return nil
}

// abort closes what a failed run opened.
func (b *Bootstrapper) abort(ctx context.Context, r *runLog, res *Result) {
	if err := res.Close(context.WithoutCancel(ctx)); err != nil {
		b.logger.Warn("close after failed bootstrap", "run", r.id, "error", err)
	}
}

func registry(cfg *config.Config) (*model.Registry, error) {
	reg := model.DefaultRegistry()
	if err := reg.Extend(cfg.Models); err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}
	return reg, nil
}

func stop(inst Instance) {
	if inst != nil {
		inst.Stop()
	}
}
