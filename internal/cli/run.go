package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chstech1/osTicket-Task-Creator/internal/audit"
	"github.com/chstech1/osTicket-Task-Creator/internal/config"
	"github.com/chstech1/osTicket-Task-Creator/internal/runner"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	DataDir   string
	AuditPath string
	Profile   string

	// Clock allows overriding the batch date (for testing).
	Clock runner.Clock
}

// NewRunCommand creates the run command: one batch over all templates.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate all templates and materialize today's occurrences",
		Long: `Run one batch: load templates, determine which one is due to spawn a
task today, write each match into the record store transactionally, and
append an audit record per created task.

Exits 0 when every matched template materializes (or none match) and 1
when at least one matched template fails; the batch still completes and
the audit artifact is written for the successes before exiting non-zero.

Example:
  taskcreator run --db ./osticket.db --data ./data
  taskcreator run --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the record store (overrides config)")
	cmd.Flags().StringVar(&opts.DataDir, "data", "", "template storage directory (overrides config)")
	cmd.Flags().StringVar(&opts.AuditPath, "audit", "", "audit artifact path (overrides config)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "store schema profile: core|forms (overrides config)")

	return cmd
}

func runBatch(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(resolveConfigPath(opts.Config))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyRunOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	loaded, loadErrs := template.LoadDir(cfg.DataDir, template.LoadModeCollectAll)
	if loaded == nil {
		return WrapExitError(ExitCommandError, "failed to load templates", loadErrs[0])
	}
	for _, lerr := range loadErrs {
		slog.Warn("template excluded", "error", lerr)
	}
	slog.Info("templates loaded", "valid", len(loaded.Templates), "excluded", loaded.Excluded)

	storeOpts := []store.Option{
		store.WithProfile(store.Profile(cfg.Store.Profile)),
		store.WithSystemIdentity(cfg.SystemIdentity),
	}
	if opts.Verbose {
		out := cmd.OutOrStdout()
		storeOpts = append(storeOpts, store.WithTrace(func(query string, args ...any) {
			fmt.Fprintf(out, "sql> %s %v\n", collapseWhitespace(query), args)
		}))
	}

	st, err := store.Open(cfg.Store.Path, storeOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open record store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing record store", "error", closeErr)
		}
	}()

	runnerOpts := []runner.Option{runner.WithLogger(slog.Default())}
	if opts.Clock != nil {
		runnerOpts = append(runnerOpts, runner.WithClock(opts.Clock))
	}
	r := runner.New(st, audit.NewRecorder(cfg.AuditPath), runnerOpts...)

	report, err := r.Run(cmd.Context(), loaded)
	if err != nil {
		return WrapExitError(ExitCommandError, "batch run failed", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluated %d templates: %d matched, %d created, %d failed.\n",
		report.Evaluated, report.Matched, len(report.Created), len(report.Failures))
	for _, entry := range report.Created {
		fmt.Fprintf(out, "  created task #%d (%s) due %s\n", entry.TaskID, entry.Title, entry.DueDate)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  FAILED %s (%s): %v\n", failure.TemplateID, failure.Title, failure.Err)
	}

	if report.Failed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d matched templates failed", len(report.Failures), report.Matched))
	}
	return nil
}

// collapseWhitespace flattens a multi-line SQL statement for one-line
// trace output.
func collapseWhitespace(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// applyRunOverrides layers run-command flags over the config file.
func applyRunOverrides(cfg *config.Config, opts *RunOptions) {
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.AuditPath != "" {
		cfg.AuditPath = opts.AuditPath
	}
	if opts.Profile != "" {
		cfg.Store.Profile = opts.Profile
	}
}
