package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/formdb/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	RunID   string
	Limit   int
}

// HistoryList is the run listing.
type HistoryList struct {
	Runs []journal.Run `json:"runs"`
}

// HistoryRun is one run with its steps.
type HistoryRun struct {
	Run     journal.Run     `json:"run"`
	Entries []journal.Entry `json:"entries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded bootstrap runs",
		Long: `List bootstrap runs from the journal, newest first, or show the steps of
one run with --run.

The journal path comes from --journal, journal.path or FORMDB_JOURNAL.

Examples:
  formdb history --journal ./formdb.db
  formdb history --run 01929f3e-6c1a-7d2b-9a4e-3f5c8b7d6e21 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the journal database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the steps of one run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	path := opts.Journal
	if path == "" {
		cfg, xerr := loadConfig(opts.RootOptions)
		if xerr != nil {
			return f.Fail(ErrCodeConfig, xerr)
		}
		path = cfg.Journal.Path
	}
	if path == "" {
		return f.Fail(ErrCodeJournal, NewExitError(ExitCommandError, "no journal configured: set --journal, journal.path or FORMDB_JOURNAL"))
	}

	j, err := journal.Open(path)
	if err != nil {
		return f.Fail(ErrCodeJournal, WrapExitError(ExitCommandError, "failed to open journal", err))
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID != "" {
		run, entries, err := j.ReadRun(ctx, opts.RunID)
		if errors.Is(err, journal.ErrRunNotFound) {
			return f.Fail(ErrCodeJournal, WrapExitError(ExitFailure, "unknown run", err))
		}
		if err != nil {
			return f.Fail(ErrCodeJournal, WrapExitError(ExitCommandError, "failed to read run", err))
		}
		return f.SuccessWithRun(HistoryRun{Run: run, Entries: entries}, run.ID)
	}

	runs, err := j.ListRuns(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ErrCodeJournal, WrapExitError(ExitCommandError, "failed to list runs", err))
	}
	return f.Success(HistoryList{Runs: runs})
}

func (l HistoryList) renderText(w io.Writer, verbose bool) error {
	if len(l.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range l.Runs {
		fmt.Fprintf(w, "%s  %s  %-9s %-7s %s\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Mode, r.Status, r.Database)
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}
	return nil
}

func (h HistoryRun) renderText(w io.Writer, verbose bool) error {
	r := h.Run
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  Started:  %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Mode:     %s\n", r.Mode)
	fmt.Fprintf(w, "  Status:   %s\n", r.Status)
	if r.URI != "" {
		fmt.Fprintf(w, "  URI:      %s\n", r.URI)
	}
	if r.Database != "" {
		fmt.Fprintf(w, "  Database: %s\n", r.Database)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  Error:    %s\n", r.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Steps ===")
	if len(h.Entries) == 0 {
		fmt.Fprintln(w, "  (no steps)")
		return nil
	}
	for _, e := range h.Entries {
		fmt.Fprintf(w, "  [%d] %-6s %-5s %s\n", e.Seq, e.Action, e.Level, e.Message)
		if verbose && len(e.Detail) > 0 {
			fmt.Fprintf(w, "       %s\n", formatDetail(e.Detail))
		}
	}
	return nil
}

// formatDetail renders a detail map with sorted keys.
func formatDetail(d map[string]string) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + d[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
