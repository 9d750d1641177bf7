package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/plan"
)

func newProgressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print completion per phase and overall",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ctx := cmd.Context()
			p := e.ctrl.Plan()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PHASE\tTITLE\tDONE\tPERCENT")
			for _, ph := range p.Phases {
				s := e.ctrl.PhaseProgress(ctx, ph.ID)
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d%%\n", ph.ID, ph.Title, s.Completed, s.Total, s.Percentage)
			}
			total := e.ctrl.Progress(ctx)
			fmt.Fprintf(w, "\tTotal\t%d/%d\t%d%%\n", total.Completed, total.Total, total.Percentage)
			if err := w.Flush(); err != nil {
				return err
			}

			counts := e.ctrl.Breakdown(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			for _, st := range plan.Statuses {
				fmt.Fprintf(out, "%-12s %d\n", st.Label(), counts[st])
			}
			return nil
		}),
	}
}
