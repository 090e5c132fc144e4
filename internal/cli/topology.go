package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewTopologyCommand creates the topology command.
func NewTopologyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Show the cluster topology and the read preference repair plan",
		Long: `Connect, print the cluster topology and each model's read preference,
and list the models a bootstrap would downgrade from secondary to
secondaryPreferred. Nothing is repaired or seeded.

Examples:
  formdb topology
  DB_HOST='mongodb://db0,db1/formsg?replicaSet=rs0' formdb topology --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopology(rootOpts, cmd)
		},
	}
	return cmd
}

func runTopology(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, xerr := loadConfig(opts)
	if xerr != nil {
		return f.Fail(ErrCodeConfig, xerr)
	}

	logger := newLogger(opts, cmd.ErrOrStderr())
	w := newWiring(opts, cfg, logger)
	defer w.close(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	in, err := w.boot.Inspect(ctx, cfg)
	if err != nil {
		xerr, code := bootstrapExit(err)
		return f.Fail(code, xerr)
	}
	return f.Success(reportTopology(in))
}
