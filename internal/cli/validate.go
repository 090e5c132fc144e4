package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/formdb/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Mode   string               `json:"mode,omitempty"`
	Errors []config.SchemaError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without connecting",
		Long: `Load the configuration file, overlay the environment and check it against
the configuration schema. No database is contacted.

Examples:
  formdb validate
  formdb validate --config ./formdb.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, xerr := loadConfig(opts)
	if xerr == nil {
		formatter.VerboseLog("Configuration loaded, mode %s", cfg.Mode())
		return formatter.Success(ValidationResult{Valid: true, Mode: string(cfg.Mode())})
	}

	schemaErrs := schemaErrors(xerr)
	if len(schemaErrs) == 0 {
		// Unreadable or unparsable file: command-level error (exit code 2).
		return formatter.Fail(ErrCodeConfig, xerr)
	}

	if formatter.Format == "json" {
		if err := formatter.Error(ErrCodeConfig, fmt.Sprintf("configuration invalid: %d error(s)", len(schemaErrs)),
			ValidationResult{Valid: false, Errors: schemaErrs}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Configuration invalid")
		_ = ValidationResult{Errors: schemaErrs}.renderText(formatter.Writer, formatter.Verbose)
	}
	// Schema violations are validation failures (exit code 1).
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(schemaErrs)))
}

// schemaErrors unpacks the joined *config.SchemaError values in err.
func schemaErrors(err error) []config.SchemaError {
	var out []config.SchemaError
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case nil:
			return
		case *config.SchemaError:
			out = append(out, *v)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		default:
			walk(errors.Unwrap(e))
		}
	}
	walk(err)
	return out
}

func (v ValidationResult) renderText(w io.Writer, verbose bool) error {
	if v.Valid {
		fmt.Fprintf(w, "✓ Configuration valid (mode: %s)\n", v.Mode)
		return nil
	}
	for _, e := range v.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Path, e.Message)
	}
	return nil
}
