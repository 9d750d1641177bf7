package cli

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/tui/styles"
	"github.com/pablasso/plannah/internal/util"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks and their progress",
	}
	cmd.AddCommand(
		newTaskAddCmd(opts),
		newTaskEditCmd(opts),
		newTaskDeleteCmd(opts),
		newTaskMoveCmd(opts),
		newTaskSetCmd(opts),
		newTaskToggleCmd(opts),
		newTaskAttachCmd(opts),
		newTaskDetachCmd(opts),
		newTaskShowCmd(opts),
	)
	return cmd
}

// taskFlags are the definition fields shared by add and edit.
type taskFlags struct {
	id, title, description, estimate string
	start, end, assignee, sop          string
	tags, dependsOn                    []string
}

func (f *taskFlags) register(fs *pflag.FlagSet, withID bool) {
	if withID {
		fs.StringVar(&f.id, "id", "", "task id (generated when empty)")
	}
	fs.StringVarP(&f.title, "title", "t", "", "task title")
	fs.StringVarP(&f.description, "description", "d", "", "task description")
	fs.StringVarP(&f.estimate, "estimate", "e", "", "time estimate, e.g. \"2 weeks\"")
	fs.StringVar(&f.start, "start", "", "scheduled start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "scheduled end date (YYYY-MM-DD)")
	fs.StringVar(&f.assignee, "assignee", "", "assignee")
	fs.StringVar(&f.sop, "sop", "", "SOP document reference")
	fs.StringSliceVar(&f.tags, "tags", nil, "comma-separated tags")
	fs.StringSliceVar(&f.dependsOn, "depends-on", nil, "comma-separated ids of tasks this one depends on")
}

// apply copies the flags that were set onto t.
func (f *taskFlags) apply(fs *pflag.FlagSet, t *plan.Task) {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("title", &t.Title, f.title)
	set("description", &t.Description, f.description)
	set("estimate", &t.TimeEstimate, f.estimate)
	set("start", &t.ScheduleDate, f.start)
	set("end", &t.ScheduleEndDate, f.end)
	set("assignee", &t.Assignee, f.assignee)
	set("sop", &t.SOPDocument, f.sop)
	if fs.Changed("tags") {
		t.Tags = normalizeTags(f.tags)
	}
	if fs.Changed("depends-on") {
		t.DependsOn = slices.Clone(f.dependsOn)
	}
}

// normalizeTags kebab-cases tags and drops empty and repeated ones.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = util.ToKebabCase(tag)
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func newTaskAddCmd(opts *rootOptions) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <phase-id>",
		Short: "Append a task to a phase",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			if _, err := findPhase(e.ctrl, args[0]); err != nil {
				return err
			}
			t := plan.Task{ID: f.id, Tags: []string{}, DependsOn: []string{}}
			f.apply(cmd.Flags(), &t)
			res, err := e.ctrl.AddTask(cmd.Context(), args[0], t)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Added task "+res.ID)
		}),
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func newTaskEditCmd(opts *rootOptions) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's definition",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := findTask(e.ctrl, args[0])
			if err != nil {
				return err
			}
			f.apply(cmd.Flags(), &t)
			res, err := e.ctrl.EditTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Updated task "+t.ID)
		}),
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func newTaskDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its progress",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			if _, err := findTask(e.ctrl, args[0]); err != nil {
				return err
			}
			res, err := e.ctrl.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Deleted task "+args[0])
		}),
	}
}

func newTaskMoveCmd(opts *rootOptions) *cobra.Command {
	var (
		phaseID string
		index   int
	)
	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task within its phase or to another phase",
		Long: `Moves a task to --index in --phase (default: its current phase). The index
counts tasks after the moved one is taken out; omit it to move to the end.`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			p := e.ctrl.Plan()
			pi, ti := p.FindTask(args[0])
			if pi < 0 {
				return fmt.Errorf("task %q not found", args[0])
			}
			src := editor.Location{PhaseID: p.Phases[pi].ID, Index: ti}

			dst := editor.Location{PhaseID: src.PhaseID}
			if phaseID != "" {
				dst.PhaseID = phaseID
			}
			di := p.FindPhase(dst.PhaseID)
			if di < 0 {
				return fmt.Errorf("phase %q not found", dst.PhaseID)
			}
			size := len(p.Phases[di].Tasks)
			if di == pi {
				size--
			}
			dst.Index = size
			if cmd.Flags().Changed("index") {
				dst.Index = index
			}

			res, err := e.ctrl.Reorder(cmd.Context(), editor.DragResult{Kind: editor.DragTask, Source: src, Destination: &dst})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Moved task %s to %s[%d]", args[0], dst.PhaseID, dst.Index))
		}),
	}
	cmd.Flags().StringVarP(&phaseID, "phase", "p", "", "destination phase id")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "zero-based destination index")
	return cmd
}

func newTaskSetCmd(opts *rootOptions) *cobra.Command {
	var status, assignee, start, end, completed, sop, notes string
	cmd := &cobra.Command{
		Use:   "set <task-id>",
		Short: "Update a task's progress: status, assignee, dates, SOP and notes",
		Long:  "Only the flags given are changed. Progress can be updated while the plan is locked.",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ctx := cmd.Context()
			st, _, err := e.ctrl.TaskState(ctx, args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("status") {
				parsed, ok := plan.ParseStatus(status)
				if !ok {
					return fmt.Errorf("invalid status %q: expected one of %s", status, statusNames())
				}
				if parsed == plan.TaskStatusCompleted && st.CompletedDate == "" && !fs.Changed("completed") {
					st.CompletedDate = plan.FormatDate(timeNow())
				}
				if parsed != plan.TaskStatusCompleted && !fs.Changed("completed") {
					st.CompletedDate = ""
				}
				st.Status = parsed
			}
			for name, dst := range map[string]*string{
				"assignee":  &st.Assignee,
				"start":     &st.ScheduleDate,
				"end":       &st.ScheduleEndDate,
				"completed": &st.CompletedDate,
				"sop":       &st.SOPDocument,
				"notes":     &st.Notes,
			} {
				if fs.Changed(name) {
					v, _ := fs.GetString(name)
					*dst = v
				}
			}
			res, err := e.ctrl.SaveTaskState(ctx, args[0], st)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Saved progress of "+args[0])
		}),
	}
	fs := cmd.Flags()
	fs.StringVarP(&status, "status", "s", "", "status: "+statusNames())
	fs.StringVar(&assignee, "assignee", "", "assignee")
	fs.StringVar(&start, "start", "", "scheduled start date (YYYY-MM-DD)")
	fs.StringVar(&end, "end", "", "scheduled end date (YYYY-MM-DD)")
	fs.StringVar(&completed, "completed", "", "completion date (YYYY-MM-DD)")
	fs.StringVar(&sop, "sop", "", "SOP document reference")
	fs.StringVar(&notes, "notes", "", "notes")
	return cmd
}

func newTaskToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Mark a task completed, or reopen a completed one",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			res, err := e.ctrl.ToggleComplete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			st, _, _ := e.ctrl.TaskState(cmd.Context(), args[0])
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Task %s is %s", args[0], st.Status.Label()))
		}),
	}
}

func newTaskAttachCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <task-id> <file>...",
		Short: "Record attachment file names on a task",
		Long:  "Only the file names are stored; the files themselves are not copied.",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ctx := cmd.Context()
			st, _, err := e.ctrl.TaskState(ctx, args[0])
			if err != nil {
				return err
			}
			for _, path := range args[1:] {
				st.Files = append(st.Files, filepath.Base(path))
			}
			res, err := e.ctrl.SaveTaskState(ctx, args[0], st)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Attached %d files to %s", len(args)-1, args[0]))
		}),
	}
}

func newTaskDetachCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <task-id> <file>",
		Short: "Remove an attachment name from a task",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			ctx := cmd.Context()
			st, _, err := e.ctrl.TaskState(ctx, args[0])
			if err != nil {
				return err
			}
			i := slices.Index(st.Files, args[1])
			if i < 0 {
				return fmt.Errorf("task %s has no attachment %q", args[0], args[1])
			}
			st.Files = slices.Delete(st.Files, i, i+1)
			res, err := e.ctrl.SaveTaskState(ctx, args[0], st)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Removed %s from %s", args[1], args[0]))
		}),
	}
}

func newTaskShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Print a task with its progress",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := findTask(e.ctrl, args[0])
			if err != nil {
				return err
			}
			st, saved, err := e.ctrl.TaskState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t = plan.Overlay(t, &st)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.TitleStyle.Render(t.Title))
			rows := []struct{ label, value string }{
				{"ID", t.ID},
				{"Phase", t.PhaseID},
				{"Status", styles.Status(t.Status) + " " + t.Status.Label()},
				{"Estimate", t.TimeEstimate},
				{"Assignee", t.Assignee},
				{"Start", t.ScheduleDate},
				{"End", t.ScheduleEndDate},
				{"Completed", t.CompletedDate},
				{"SOP", t.SOPDocument},
				{"Tags", strings.Join(t.Tags, ", ")},
				{"Depends on", strings.Join(t.DependsOn, ", ")},
				{"Files", strings.Join(t.Files, ", ")},
			}
			for _, r := range rows {
				if r.value == "" {
					continue
				}
				fmt.Fprintf(out, "%s %s\n", styles.LabelStyle.Render(r.label), r.value)
			}
			fmt.Fprintf(out, "\n%s\n", t.Description)
			if t.Notes != "" {
				fmt.Fprintf(out, "\n%s\n%s\n", styles.SubtleStyle.Render("Notes"), t.Notes)
			}
			if saved && !st.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "\n%s\n", styles.SubtleStyle.Render("Last saved "+formatAge(st.UpdatedAt)))
			}
			return nil
		}),
	}
}

func findTask(ctrl *app.Controller, id string) (plan.Task, error) {
	t, ok := ctrl.Plan().Task(id)
	if !ok {
		return plan.Task{}, fmt.Errorf("task %q not found", id)
	}
	return t, nil
}

func statusNames() string {
	names := make([]string, len(plan.Statuses))
	for i, st := range plan.Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
