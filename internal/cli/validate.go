package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chstech1/osTicket-Task-Creator/internal/config"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	DataDir string
}

// NewValidateCommand creates the validate command: template schema
// validation only, no writes.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "validate",
		Short:         "Validate the template storage without running anything",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "template storage directory (overrides config)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(resolveConfigPath(opts.Config))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	loaded, loadErrs := template.LoadDir(cfg.DataDir, template.LoadModeCollectAll)
	if loaded == nil {
		return WrapExitError(ExitCommandError, "failed to load templates", loadErrs[0])
	}

	out := cmd.OutOrStdout()
	for _, lerr := range loadErrs {
		fmt.Fprintf(out, "INVALID  %v\n", lerr)
	}
	fmt.Fprintf(out, "%d valid, %d invalid\n", len(loaded.Templates), loaded.Excluded)

	if len(loadErrs) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid templates", len(loadErrs)))
	}
	return nil
}
