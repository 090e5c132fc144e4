package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bootstrap the database once and exit",
		Long: `Run the startup bootstrap once: connect (retrying once), repair read
preferences for replica sets with no secondary, seed bootstrap agencies,
print what was done, then disconnect.

Seeding of the production agency needs all of INIT_AGENCY_DOMAIN,
INIT_AGENCY_SHORTNAME and INIT_AGENCY_FULLNAME.

Examples:
  formdb init
  DB_HOST=mongodb://db:27017/formsg formdb init --format json
  MONGO_BINARY_VERSION=7.0.14 formdb init -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
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

	res, err := w.boot.Run(ctx, cfg)
	if err != nil {
		xerr, code := bootstrapExit(err)
		return f.Fail(code, xerr)
	}
	defer func() {
		if err := res.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("error closing connection", "error", err)
		}
	}()

	return f.SuccessWithRun(summarize(res), res.RunID)
}
