package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/mindmorass/clipstack/internal/app"
)

// NewRunCommand creates the run command
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the menubar app",
		Long: `Start capturing the clipboard and show the history in the menubar.

Example:
  clipstack run
  clipstack run --config ./work.yaml --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			a, err := app.New(cfg, opts.Version, opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to create application", err)
			}

			log.Printf("Clipstack %s starting (source: %s)", opts.Version, cfg.Source)
			if err := a.Run(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "application error", err)
			}
			return nil
		},
	}
}
