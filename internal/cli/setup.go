package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/formdb/internal/bootstrap"
	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/docstore"
	"github.com/roach88/formdb/internal/ephemeral"
	"github.com/roach88/formdb/internal/journal"
	"github.com/roach88/formdb/internal/metrics"
	"github.com/roach88/formdb/internal/model"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger writes structured logs to w: text by default, JSON when the
// output format is JSON, debug level with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// loadConfig reads the config file, overlays the environment and validates.
// An unreadable file exits 2; a schema violation exits 1.
func loadConfig(opts *RootOptions) (*config.Config, *ExitError) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg.ApplyEnv(getenv)
	if err := config.Validate(cfg); err != nil {
		return nil, WrapExitError(ExitFailure, "invalid config", err)
	}
	return cfg, nil
}

// wiring is a bootstrapper plus the resources that must be released with it.
type wiring struct {
	boot    *bootstrap.Bootstrapper
	metrics *metrics.Metrics
	journal *journal.Journal
}

func (w *wiring) close(logger *slog.Logger) {
	if w.journal == nil {
		return
	}
	if err := w.journal.Close(); err != nil {
		logger.Warn("journal close failed", "error", err)
	}
}

// newWiring builds the bootstrapper for cfg. A journal that cannot be
// opened is logged and skipped.
func newWiring(opts *RootOptions, cfg *config.Config, logger *slog.Logger) *wiring {
	w := &wiring{metrics: metrics.New()}

	deps := bootstrap.Deps{
		Connector: opts.Connector,
		Launcher:  opts.Launcher,
		Metrics:   w.metrics,
		Logger:    logger,
	}
	if deps.Connector == nil {
		deps.Connector = mongoConnector()
	}
	if deps.Launcher == nil {
		deps.Launcher = memongoLauncher(logger)
	}

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable, continuing without it", "path", cfg.Journal.Path, "error", err)
		} else {
			w.journal = j
			deps.Recorder = j
		}
	}

	w.boot = bootstrap.New(deps)
	return w
}

func mongoConnector() bootstrap.Connector {
	return bootstrap.ConnectFunc(func(ctx context.Context, uri string, o config.DriverOptions, models *model.Registry) (bootstrap.Conn, error) {
		c, err := docstore.Connect(ctx, uri, o, models)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func memongoLauncher(logger *slog.Logger) bootstrap.Launcher {
	return bootstrap.LaunchFunc(func(ctx context.Context, spec ephemeral.Spec) (bootstrap.Instance, error) {
		inst, err := ephemeral.Launch(ctx, spec, logger)
		if err != nil {
			return nil, err
		}
		return inst, nil
	})
}
