package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/plan"
)

func newPhaseCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Add, edit, delete and reorder phases",
	}
	cmd.AddCommand(
		newPhaseAddCmd(opts),
		newPhaseEditCmd(opts),
		newPhaseDeleteCmd(opts),
		newPhaseMoveCmd(opts),
	)
	return cmd
}

func newPhaseAddCmd(opts *rootOptions) *cobra.Command {
	var ph plan.Phase
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a phase",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			res, err := e.ctrl.AddPhase(cmd.Context(), ph)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Added phase "+res.ID)
		}),
	}
	cmd.Flags().StringVar(&ph.ID, "id", "", "phase id (generated when empty)")
	cmd.Flags().StringVarP(&ph.Title, "title", "t", "", "phase title")
	cmd.Flags().StringVarP(&ph.Description, "description", "d", "", "phase description")
	return cmd
}

func newPhaseEditCmd(opts *rootOptions) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <phase-id>",
		Short: "Change a phase's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ph, err := findPhase(e.ctrl, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				ph.Title = title
			}
			if cmd.Flags().Changed("description") {
				ph.Description = description
			}
			res, err := e.ctrl.EditPhase(cmd.Context(), ph)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Updated phase "+ph.ID)
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func newPhaseDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <phase-id>",
		Short: "Delete a phase, its tasks and their progress",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ph, err := findPhase(e.ctrl, args[0])
			if err != nil {
				return err
			}
			res, err := e.ctrl.DeletePhase(cmd.Context(), ph.ID)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Deleted phase %s and %d tasks", ph.ID, len(ph.Tasks)))
		}),
	}
}

func newPhaseMoveCmd(opts *rootOptions) *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "move <phase-id> [up|down]",
		Short: "Move a phase one step, or to a position with --to",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ctx := cmd.Context()
			p := e.ctrl.Plan()
			from := p.FindPhase(args[0])
			if from < 0 {
				return fmt.Errorf("phase %q not found", args[0])
			}

			var (
				res app.Result
				err error
			)
			switch {
			case cmd.Flags().Changed("to"):
				if len(args) > 1 {
					return fmt.Errorf("use either a direction or --to, not both")
				}
				res, err = e.ctrl.Reorder(ctx, editor.DragResult{
					Kind:        editor.DragPhase,
					Source:      editor.Location{Index: from},
					Destination: &editor.Location{Index: to},
				})
			case len(args) == 2:
				dir, derr := parseDirection(args[1])
				if derr != nil {
					return derr
				}
				res, err = e.ctrl.MovePhase(ctx, args[0], dir)
			default:
				return fmt.Errorf("give a direction (up or down) or --to")
			}
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Moved phase "+args[0])
		}),
	}
	cmd.Flags().IntVar(&to, "to", 0, "zero-based position to move the phase to")
	return cmd
}

func parseDirection(s string) (editor.Direction, error) {
	switch s {
	case "up":
		return editor.Up, nil
	case "down":
		return editor.Down, nil
	}
	return 0, fmt.Errorf("invalid direction %q: expected up or down", s)
}

func findPhase(ctrl *app.Controller, id string) (plan.Phase, error) {
	p := ctrl.Plan()
	i := p.FindPhase(id)
	if i < 0 {
		return plan.Phase{}, fmt.Errorf("phase %q not found", id)
	}
	return p.Phases[i], nil
}

// report prints msg with the new progress, or that nothing changed.
func report(w io.Writer, res app.Result, msg string) error {
	if !res.Changed {
		_, err := fmt.Fprintln(w, "Nothing changed.")
		return err
	}
	_, err := fmt.Fprintf(w, "%s (progress %d/%d, %d%%)\n", msg, res.Progress.Completed, res.Progress.Total, res.Progress.Percentage)
	return err
}
