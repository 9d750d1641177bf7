package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/tui/components"
	"github.com/pablasso/plannah/internal/tui/styles"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	var phaseID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the plan with task status",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			return printPlan(cmd.Context(), cmd.OutOrStdout(), e.ctrl, phaseID)
		}),
	}
	cmd.Flags().StringVar(&phaseID, "phase", "", "only show this phase")
	return cmd
}

// printPlan writes the plan tree. Task rows show the effective state, so a
// saved status or assignee wins over the plan's own.
func printPlan(ctx context.Context, w io.Writer, ctrl *app.Controller, phaseID string) error {
	p := ctrl.Plan()
	if phaseID != "" && p.FindPhase(phaseID) < 0 {
		return fmt.Errorf("phase %q not found", phaseID)
	}

	title := p.Title
	if ctrl.Locked() {
		title += " " + styles.LockedStyle.Render("[locked]")
	}
	fmt.Fprintln(w, styles.TitleStyle.Render(title))
	fmt.Fprintln(w, components.NewProgress(ctrl.Progress(ctx), 20).View())

	for _, ph := range p.Phases {
		if phaseID != "" && ph.ID != phaseID {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", styles.PhaseStyle.Render(ph.Title), styles.SubtleStyle.Render("("+ph.ID+")"))
		fmt.Fprintf(w, "  %s\n", components.NewProgress(ctrl.PhaseProgress(ctx, ph.ID), 10).View())
		if len(ph.Tasks) == 0 {
			fmt.Fprintln(w, styles.SubtleStyle.Render("  no tasks"))
		}
		for _, t := range ph.Tasks {
			st, _, err := ctrl.TaskState(ctx, t.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s %s %s%s\n",
				styles.Status(st.Status),
				t.Title,
				styles.SubtleStyle.Render(t.ID),
				taskMeta(st),
			)
		}
	}
	return nil
}

func taskMeta(st plan.TaskState) string {
	var parts []string
	if st.Assignee != "" {
		parts = append(parts, "@"+st.Assignee)
	}
	if st.ScheduleDate != "" {
		span := st.ScheduleDate
		if st.ScheduleEndDate != "" {
			span += " → " + st.ScheduleEndDate
		}
		parts = append(parts, span)
	}
	if st.CompletedDate != "" {
		parts = append(parts, "done "+st.CompletedDate)
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + styles.SubtleStyle.Render(strings.Join(parts, " · "))
}
