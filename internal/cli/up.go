package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the metrics server drain on exit.
const shutdownTimeout = 5 * time.Second

// UpOptions holds flags for the up command.
type UpOptions struct {
	*RootOptions
	MetricsAddr string
}

// NewUpCommand creates the up command.
func NewUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the database and hold the connection open",
		Long: `Run the startup bootstrap and keep the connection, and any in-memory
mongod it started, alive until SIGINT or SIGTERM.

Connection lifecycle events are logged for as long as the process runs.
With --metrics-addr, Prometheus metrics are served on /metrics.

Examples:
  MONGO_BINARY_VERSION=7.0.14 formdb up
  formdb up --config ./formdb.yaml --metrics-addr :9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")

	return cmd
}

func runUp(opts *UpOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	cfg, xerr := loadConfig(opts.RootOptions)
	if xerr != nil {
		return f.Fail(ErrCodeConfig, xerr)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	w := newWiring(opts.RootOptions, cfg, logger)
	defer w.close(logger)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := w.boot.Run(ctx, cfg)
	if err != nil {
		xerr, code := bootstrapExit(err)
		return f.Fail(code, xerr)
	}
	defer func() {
		if err := res.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("error closing connection", "error", err)
		}
		logger.Info("formdb stopped", "run", res.RunID)
	}()

	if err := f.SuccessWithRun(summarize(res), res.RunID); err != nil {
		return err
	}
	if opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "Connection held open. Press Ctrl-C to stop.")
	}

	addr := opts.MetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}

	g, gctx := errgroup.WithContext(ctx)
	if addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen for metrics", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", w.metrics.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		logger.Info("serving metrics", "addr", ln.Addr().String())

		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "reason", context.Cause(gctx))
		return nil
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "formdb up", err)
	}
	return nil
}
