package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/version"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	dataDir    string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "plannah",
		Short: "Manufacturing checklist and planner",
		Long: `Plannah tracks a manufacturing plan of phases and tasks: status, assignees,
schedule dates, notes and attachments. Run it without arguments to open the
interactive planner.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default is plannah.yaml in the data dir or $HOME/.plannah)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "workspace directory (default .plannah)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newDeinitCmd(opts),
		newShowCmd(opts),
		newProgressCmd(opts),
		newTimelineCmd(opts),
		newHistoryCmd(opts),
		newPhaseCmd(opts),
		newTaskCmd(opts),
		newLockCmd(opts, true),
		newLockCmd(opts, false),
		newExportCmd(opts),
		newImportCmd(opts),
		newResetCmd(opts),
		newPruneCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command; cancelling ctx ends the planner.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
