package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chstech1/osTicket-Task-Creator/internal/calendar"
	"github.com/chstech1/osTicket-Task-Creator/internal/config"
	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// CalendarOptions holds flags for the calendar command.
type CalendarOptions struct {
	*RootOptions
	Database string
	DataDir  string
	From     string
	To       string
	Client   string
	Staff    int64
	Team     int64
}

// NewCalendarCommand creates the calendar command: the read-only
// projection of upcoming due/creation markers plus open past-due tasks.
func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CalendarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Project upcoming due and creation dates",
		Long: `Project every due and creation marker inside a date window, merged
with currently open past-due tasks from the record store. Read-only.

Example:
  taskcreator calendar --from 2024-01-01 --to 2024-03-31
  taskcreator calendar --client c-1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendar(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the record store (overrides config)")
	cmd.Flags().StringVar(&opts.DataDir, "data", "", "template storage directory (overrides config)")
	cmd.Flags().StringVar(&opts.From, "from", "", "window start, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.To, "to", "", "window end, YYYY-MM-DD (default 30 days out)")
	cmd.Flags().StringVar(&opts.Client, "client", "", "filter by client id")
	cmd.Flags().Int64Var(&opts.Staff, "staff", 0, "filter by staff assignee id")
	cmd.Flags().Int64Var(&opts.Team, "team", 0, "filter by team assignee id")

	return cmd
}

func runCalendar(opts *CalendarOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(resolveConfigPath(opts.Config))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	today := schedule.Truncate(time.Now())
	start, end, err := resolveWindow(opts.From, opts.To, today)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid window", err)
	}

	loaded, loadErrs := template.LoadDir(cfg.DataDir, template.LoadModeCollectAll)
	if loaded == nil {
		return WrapExitError(ExitCommandError, "failed to load templates", loadErrs[0])
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open record store", err)
	}
	defer st.Close()

	filters := calendar.Filters{ClientID: opts.Client}
	switch {
	case opts.Staff > 0:
		filters.AssigneeType = template.AssigneeStaff
		filters.AssigneeID = opts.Staff
	case opts.Team > 0:
		filters.AssigneeType = template.AssigneeTeam
		filters.AssigneeID = opts.Team
	}

	events, err := calendar.New(st).Project(cmd.Context(), loaded.Templates, start, end, today, filters)
	if err != nil {
		return WrapExitError(ExitCommandError, "projection failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.JSON(events)
	}
	for _, ev := range events {
		label := ev.TemplateID
		if label == "" {
			label = fmt.Sprintf("task #%d", ev.Number)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-15s %s (%s)\n", ev.Date, ev.Layer, ev.Title, label)
	}
	return nil
}

// resolveWindow parses the --from/--to flags with their defaults.
func resolveWindow(from, to string, today time.Time) (start, end time.Time, err error) {
	start = today
	if from != "" {
		if start, err = schedule.ParseDate(from); err != nil {
			return start, end, err
		}
	}
	end = start.AddDate(0, 0, 30)
	if to != "" {
		if end, err = schedule.ParseDate(to); err != nil {
			return start, end, err
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("window end %s before start %s", schedule.FormatDate(end), schedule.FormatDate(start))
	}
	return start, end, nil
}
