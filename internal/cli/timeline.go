package cli

import (
	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/schedule"
)

func newTimelineCmd(opts *rootOptions) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print a Gantt chart of scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			tl := schedule.Build(cmd.Context(), e.ctrl.Plan(), e.store, timeNow(), e.logger)
			return schedule.Render(cmd.OutOrStdout(), tl, 32, width)
		}),
	}
	cmd.Flags().IntVarP(&width, "width", "w", 60, "bar width in columns")
	return cmd
}
