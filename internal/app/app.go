// Package app owns the active plan. It applies editor operations under the
// lock flag, keeps task state in step with structural deletes, persists every
// change to the workspace and records it in the journal.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/progress"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/transfer"
	"github.com/pablasso/plannah/internal/workspace"
)

// ErrLocked is returned for structural edits while the plan is locked.
var ErrLocked = errors.New("plan is locked")

// MinLeftPanelWidth bounds SetLayout.
const MinLeftPanelWidth = 24

// Result describes the outcome of a mutation.
type Result struct {
	// ID is the id of a created phase or task.
	ID string
	// Changed is false when the operation was a no-op, including swallowed
	// not-found errors.
	Changed  bool
	Progress progress.Summary
}

// Options configures a Controller.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Controller is the single writer of a workspace's plan.
type Controller struct {
	ws       *workspace.Workspace
	store    taskstore.Store
	journal  *workspace.Journal
	progress *progress.Aggregator
	logger   *slog.Logger
	now      func() time.Time

	plan     *plan.Plan
	locked   bool
	selected string
	layout   workspace.Layout
}

// Open loads the plan, lock flag and layout from ws.
func Open(ctx context.Context, ws *workspace.Workspace, store taskstore.Store, opts Options) (*Controller, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		ws:       ws,
		store:    store,
		journal:  ws.Journal(),
		progress: progress.New(store, opts.Logger),
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rereads the plan, lock flag and layout, as after another process
// changed the workspace. A selection that no longer exists is cleared.
func (c *Controller) Reload(ctx context.Context) error {
	p, err := c.ws.LoadPlan(ctx)
	if err != nil {
		return err
	}
	c.plan = p
	c.locked = c.ws.LoadLocked(ctx)
	c.layout = c.ws.LoadLayout(ctx)
	if _, ok := c.plan.Task(c.selected); !ok {
		c.selected = ""
	}
	return nil
}

// Plan returns a copy of the active plan.
func (c *Controller) Plan() *plan.Plan { return c.plan.Clone() }

// Store returns the task state store.
func (c *Controller) Store() taskstore.Store { return c.store }

// Locked reports whether structural edits are disabled.
func (c *Controller) Locked() bool { return c.locked }

// Layout returns the layout preference.
func (c *Controller) Layout() workspace.Layout { return c.layout }

// Selected returns the selected task id, or "".
func (c *Controller) Selected() string { return c.selected }

// Select selects a task. An unknown id clears the selection.
func (c *Controller) Select(taskID string) bool {
	if _, ok := c.plan.Task(taskID); !ok {
		c.selected = ""
		return false
	}
	c.selected = taskID
	return true
}

// Progress returns the plan-wide progress.
func (c *Controller) Progress(ctx context.Context) progress.Summary {
	return c.progress.Total(ctx, c.plan)
}

// PhaseProgress returns the progress of one phase.
func (c *Controller) PhaseProgress(ctx context.Context, phaseID string) progress.Summary {
	i := c.plan.FindPhase(phaseID)
	if i < 0 {
		return progress.Summary{}
	}
	return c.progress.Phase(ctx, c.plan.Phases[i])
}

// Breakdown returns how many tasks are in each status.
func (c *Controller) Breakdown(ctx context.Context) map[plan.TaskStatus]int {
	return c.progress.Breakdown(ctx, c.plan)
}

// AddPhase appends a phase. An empty id is generated.
func (c *Controller) AddPhase(ctx context.Context, ph plan.Phase) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	if ph.ID == "" {
		ph.ID = c.plan.NewPhaseID(c.now())
	}
	if err := plan.ValidatePhase(ph); err != nil {
		return Result{}, fmt.Errorf("invalid phase: %w", err)
	}
	next, err := editor.AddPhase(c.plan, ph)
	if err != nil {
		return Result{}, err
	}
	res, err := c.commit(ctx, next, workspace.EventPhaseAdded, map[string]any{"phaseId": ph.ID, "title": ph.Title})
	res.ID = ph.ID
	return res, err
}

// EditPhase updates a phase's title and description.
func (c *Controller) EditPhase(ctx context.Context, ph plan.Phase) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	if err := plan.ValidatePhase(ph); err != nil {
		return Result{}, fmt.Errorf("invalid phase: %w", err)
	}
	next, err := editor.EditPhase(c.plan, ph)
	if err != nil {
		return c.swallow(ctx, "edit phase", err)
	}
	return c.commit(ctx, next, workspace.EventPhaseUpdated, map[string]any{"phaseId": ph.ID})
}

// DeletePhase removes a phase and the state of all its tasks.
func (c *Controller) DeletePhase(ctx context.Context, phaseID string) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	next, removed, err := editor.DeletePhase(c.plan, phaseID)
	if err != nil {
		return c.swallow(ctx, "delete phase", err)
	}
	res, err := c.commit(ctx, next, workspace.EventPhaseDeleted, map[string]any{"phaseId": phaseID, "tasks": len(removed)})
	if err != nil {
		return res, err
	}
	for _, id := range removed {
		if id == c.selected {
			c.selected = ""
		}
	}
	if err := taskstore.Purge(ctx, c.store, removed); err != nil {
		c.logger.Warn("failed to purge task state", "phase_id", phaseID, "error", err)
	}
	res.Progress = c.Progress(ctx)
	return res, nil
}

// MovePhase swaps a phase with its neighbour.
func (c *Controller) MovePhase(ctx context.Context, phaseID string, dir editor.Direction) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	next, err := editor.MovePhase(c.plan, phaseID, dir)
	if err != nil {
		return c.swallow(ctx, "move phase", err)
	}
	if next.FindPhase(phaseID) == c.plan.FindPhase(phaseID) {
		return c.unchanged(ctx), nil
	}
	return c.commit(ctx, next, workspace.EventPhaseMoved, map[string]any{"phaseId": phaseID, "index": next.FindPhase(phaseID)})
}

// AddTask appends a task to a phase. An empty id is generated.
func (c *Controller) AddTask(ctx context.Context, phaseID string, t plan.Task) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	if t.ID == "" {
		t.ID = c.plan.NewTaskID(phaseID, c.now())
	}
	if err := plan.ValidateTask(t); err != nil {
		return Result{}, fmt.Errorf("invalid task: %w", err)
	}
	if t.Status == "" {
		t.Status = plan.TaskStatusPending
	}
	if t.DependsOn == nil {
		t.DependsOn = []string{}
	}
	next, err := editor.AddTask(c.plan, phaseID, t)
	if err != nil {
		if errors.Is(err, editor.ErrDuplicateID) {
			return Result{}, err
		}
		return c.swallow(ctx, "add task", err)
	}
	res, err := c.commit(ctx, next, workspace.EventTaskAdded, map[string]any{"taskId": t.ID, "phaseId": phaseID, "title": t.Title})
	res.ID = t.ID
	return res, err
}

// EditTask replaces a task's definition. t.PhaseID names its phase.
func (c *Controller) EditTask(ctx context.Context, t plan.Task) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	if err := plan.ValidateTask(t); err != nil {
		return Result{}, fmt.Errorf("invalid task: %w", err)
	}
	next, err := editor.EditTask(c.plan, t)
	if err != nil {
		return c.swallow(ctx, "edit task", err)
	}
	return c.commit(ctx, next, workspace.EventTaskUpdated, map[string]any{"taskId": t.ID})
}

// DeleteTask removes a task and its state.
func (c *Controller) DeleteTask(ctx context.Context, taskID string) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	next, phaseID, err := editor.DeleteTask(c.plan, taskID)
	if err != nil {
		return c.swallow(ctx, "delete task", err)
	}
	res, err := c.commit(ctx, next, workspace.EventTaskDeleted, map[string]any{"taskId": taskID, "phaseId": phaseID})
	if err != nil {
		return res, err
	}
	if c.selected == taskID {
		c.selected = ""
	}
	if err := c.store.DeleteState(ctx, taskID); err != nil {
		c.logger.Warn("failed to delete task state", "task_id", taskID, "error", err)
	}
	res.Progress = c.Progress(ctx)
	return res, nil
}

// Reorder applies a drag result. A drop with no destination, or onto the
// source, does nothing.
func (c *Controller) Reorder(ctx context.Context, r editor.DragResult) (Result, error) {
	if c.locked {
		return Result{}, ErrLocked
	}
	if r.Noop() {
		return c.unchanged(ctx), nil
	}
	next, err := editor.Reorder(c.plan, r)
	if err != nil {
		return c.swallow(ctx, "reorder", err)
	}
	event := workspace.EventTaskMoved
	if r.Kind == editor.DragPhase {
		event = workspace.EventPhaseMoved
	}
	return c.commit(ctx, next, event, map[string]any{
		"from": fmt.Sprintf("%s[%d]", r.Source.PhaseID, r.Source.Index),
		"to":   fmt.Sprintf("%s[%d]", r.Destination.PhaseID, r.Destination.Index),
	})
}

// Import replaces the plan with the one parsed from text. Task state of the
// previous plan is purged only once the new plan is stored, so a parse or
// save failure leaves both the plan and its progress unchanged.
func (c *Controller) Import(ctx context.Context, text string) (Result, error) {
	d, err := transfer.Decode(text, c.now())
	if err != nil {
		return Result{}, err
	}
	prev := c.plan
	res, err := c.commit(ctx, d.Plan, workspace.EventPlanImported, map[string]any{"title": d.Plan.Title, "tasks": d.Plan.TaskCount()})
	if err != nil {
		return Result{}, err
	}
	c.selected = ""
	if err := transfer.ReplaceState(ctx, c.store, prev, d.Progress); err != nil {
		c.logger.Warn("imported plan has stale task state", "title", d.Plan.Title, "error", err)
		return Result{Changed: true, Progress: c.Progress(ctx)}, fmt.Errorf("plan imported, but task state was not replaced: %w", err)
	}
	res.Progress = c.Progress(ctx)
	return res, nil
}

// Reset replaces the plan with the built-in default and clears the saved
// state of every current task, the lock flag and the layout.
func (c *Controller) Reset(ctx context.Context) error {
	if c.locked {
		return ErrLocked
	}
	if err := taskstore.Purge(ctx, c.store, c.plan.TaskIDs()); err != nil {
		return fmt.Errorf("failed to clear task state: %w", err)
	}
	if err := c.ws.Reset(ctx); err != nil {
		return err
	}
	c.selected = ""
	if err := c.Reload(ctx); err != nil {
		return err
	}
	c.record(workspace.EventPlanReset, map[string]any{"title": c.plan.Title})
	return nil
}

// Prune deletes saved state of tasks that are no longer in the plan and
// returns how many were removed.
func (c *Controller) Prune(ctx context.Context) (int, error) {
	lister, ok := c.store.(taskstore.Lister)
	if !ok {
		return 0, errors.New("task store cannot list saved state")
	}
	ids, err := lister.StoredIDs(ctx)
	if err != nil {
		return 0, err
	}
	orphans := slices.DeleteFunc(ids, func(id string) bool {
		_, ok := c.plan.Task(id)
		return ok
	})
	if len(orphans) == 0 {
		return 0, nil
	}
	if err := taskstore.Purge(ctx, c.store, orphans); err != nil {
		return 0, err
	}
	c.record(workspace.EventStatePruned, map[string]any{"count": len(orphans)})
	return len(orphans), nil
}

// Lock disables structural edits.
func (c *Controller) Lock(ctx context.Context) error { return c.setLocked(ctx, true) }

// Unlock enables structural edits.
func (c *Controller) Unlock(ctx context.Context) error { return c.setLocked(ctx, false) }

// ToggleLock flips the lock flag and returns the new value.
func (c *Controller) ToggleLock(ctx context.Context) (bool, error) {
	err := c.setLocked(ctx, !c.locked)
	return c.locked, err
}

func (c *Controller) setLocked(ctx context.Context, locked bool) error {
	if c.locked == locked {
		return nil
	}
	if err := c.ws.SaveLocked(ctx, locked); err != nil {
		return err
	}
	c.locked = locked
	event := workspace.EventPlanUnlocked
	if locked {
		event = workspace.EventPlanLocked
	}
	c.record(event, nil)
	return nil
}

// SetLayout stores the left panel width, clamped to MinLeftPanelWidth.
func (c *Controller) SetLayout(ctx context.Context, leftPanelWidth int) error {
	l := workspace.Layout{LeftPanelWidth: max(leftPanelWidth, MinLeftPanelWidth)}
	if l == c.layout {
		return nil
	}
	if err := c.ws.SaveLayout(ctx, l); err != nil {
		return err
	}
	c.layout = l
	return nil
}

// TaskState returns the task's state: the stored one, or the task's own
// fields when nothing is stored.
func (c *Controller) TaskState(ctx context.Context, taskID string) (plan.TaskState, bool, error) {
	t, ok := c.plan.Task(taskID)
	if !ok {
		return plan.TaskState{}, false, fmt.Errorf("task %s: %w", taskID, editor.ErrTaskNotFound)
	}
	st, found := taskstore.Lookup(ctx, c.store, taskID, c.logger)
	if !found {
		return plan.StateFromTask(t), false, nil
	}
	return plan.StateFromTask(plan.Overlay(t, st)), true, nil
}

// SaveTaskState validates and stores a task's runtime state. Allowed while
// locked.
func (c *Controller) SaveTaskState(ctx context.Context, taskID string, st plan.TaskState) (Result, error) {
	if _, ok := c.plan.Task(taskID); !ok {
		return Result{}, fmt.Errorf("task %s: %w", taskID, editor.ErrTaskNotFound)
	}
	if err := plan.ValidateState(st); err != nil {
		return Result{}, fmt.Errorf("invalid task state: %w", err)
	}
	st.Status = st.Status.Normalized()
	st.UpdatedAt = c.now()
	if err := c.store.SaveState(ctx, taskID, st); err != nil {
		return Result{}, fmt.Errorf("failed to save task state: %w", err)
	}
	c.RecordStateSaved(taskID, st)
	return Result{Changed: true, Progress: c.Progress(ctx)}, nil
}

// ToggleComplete flips a task between completed and pending. Completing
// stamps today's date; reopening clears it.
func (c *Controller) ToggleComplete(ctx context.Context, taskID string) (Result, error) {
	st, _, err := c.TaskState(ctx, taskID)
	if err != nil {
		return Result{}, err
	}
	if st.Status == plan.TaskStatusCompleted {
		st.Status = plan.TaskStatusPending
		st.CompletedDate = ""
	} else {
		st.Status = plan.TaskStatusCompleted
		st.CompletedDate = plan.FormatDate(c.now())
	}
	return c.SaveTaskState(ctx, taskID, st)
}

// RecordStateSaved journals a task state save made elsewhere, such as by
// the detail form.
func (c *Controller) RecordStateSaved(taskID string, st plan.TaskState) {
	c.record(workspace.EventTaskStateSaved, map[string]any{"taskId": taskID, "status": string(st.Status)})
}

// commit persists next, installs it and journals event.
func (c *Controller) commit(ctx context.Context, next *plan.Plan, event string, data map[string]any) (Result, error) {
	if err := c.ws.SavePlan(ctx, next); err != nil {
		return Result{}, err
	}
	c.plan = next
	c.record(event, data)
	return Result{Changed: true, Progress: c.Progress(ctx)}, nil
}

// swallow logs a structural failure and reports an unchanged plan.
func (c *Controller) swallow(ctx context.Context, op string, err error) (Result, error) {
	c.logger.Warn("structural edit failed", "op", op, "error", err)
	return c.unchanged(ctx), nil
}

func (c *Controller) unchanged(ctx context.Context) Result {
	return Result{Progress: c.Progress(ctx)}
}

func (c *Controller) record(event string, data map[string]any) {
	if err := c.journal.Log(event, data); err != nil {
		c.logger.Warn("failed to write journal", "event", event, "error", err)
	}
}
