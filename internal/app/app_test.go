package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/kv"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/transfer"
	"github.com/pablasso/plannah/internal/workspace"
)

var fixedNow = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	c       *Controller
	ws      *workspace.Workspace
	backend *kv.MemoryBackend
	store   *taskstore.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := kv.NewMemoryBackend()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ws := workspace.New(backend, t.TempDir(), logger)
	store := taskstore.NewMemory()
	c, err := Open(context.Background(), ws, store, Options{
		Logger: logger,
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return fixture{c: c, ws: ws, backend: backend, store: store}
}

func (f fixture) events(t *testing.T) []string {
	t.Helper()
	evs, err := f.ws.Journal().Read(0)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(evs))
	for i, ev := range evs {
		names[i] = ev.Event
	}
	return names
}

func newTask(title string) plan.Task {
	return plan.Task{Title: title, Description: "d", TimeEstimate: "1 day"}
}

func TestOpenUsesDefaultPlan(t *testing.T) {
	f := newFixture(t)
	p := f.c.Plan()
	if p.Title != "Surge Master Plan" {
		t.Errorf("title: got %q", p.Title)
	}
	if f.c.Locked() {
		t.Error("new workspace should be unlocked")
	}
	if got := f.c.Layout().LeftPanelWidth; got != workspace.DefaultLeftPanelWidth {
		t.Errorf("layout width: got %d, want %d", got, workspace.DefaultLeftPanelWidth)
	}
	if got := f.c.Progress(context.Background()); got.Total != 14 || got.Completed != 0 {
		t.Errorf("progress: got %+v", got)
	}
}

func TestPlanReturnsCopy(t *testing.T) {
	f := newFixture(t)
	p := f.c.Plan()
	p.Phases[0].Title = "mutated"
	if f.c.Plan().Phases[0].Title == "mutated" {
		t.Error("Plan() exposed the controller's plan")
	}
}

func TestAddPhaseAndTaskPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.c.AddPhase(ctx, plan.Phase{Title: "Packaging", Description: "Box and ship"})
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}
	if !res.Changed || res.ID == "" {
		t.Fatalf("AddPhase result: %+v", res)
	}
	phaseID := res.ID

	res, err = f.c.AddTask(ctx, phaseID, newTask("Print labels"))
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if res.Progress.Total != 15 {
		t.Errorf("progress total: got %d, want 15", res.Progress.Total)
	}
	taskID := res.ID

	stored, err := f.ws.LoadPlan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := stored.Task(taskID)
	if !ok {
		t.Fatalf("task %s not persisted", taskID)
	}
	if got.PhaseID != phaseID || got.Status != plan.TaskStatusPending {
		t.Errorf("persisted task: %+v", got)
	}

	want := []string{workspace.EventPhaseAdded, workspace.EventTaskAdded}
	if evs := f.events(t); len(evs) != 2 || evs[0] != want[0] || evs[1] != want[1] {
		t.Errorf("journal: got %v, want %v", evs, want)
	}
}

func TestValidationErrorsAreReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.AddPhase(ctx, plan.Phase{Title: "No description"}); err == nil {
		t.Error("expected validation error for phase")
	}
	bad := newTask("Bad date")
	bad.ScheduleDate = "05/06/2024"
	if _, err := f.c.AddTask(ctx, "phase1", bad); err == nil {
		t.Error("expected validation error for task")
	}
	if f.c.Plan().TaskCount() != 14 {
		t.Error("plan changed after validation failure")
	}
}

func TestLockedBlocksStructuralEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.c.Lock(ctx); err != nil {
		t.Fatal(err)
	}
	before := len(f.c.Plan().Phases[0].Tasks)

	ops := map[string]func() (Result, error){
		"add phase":    func() (Result, error) { return f.c.AddPhase(ctx, plan.Phase{Title: "x", Description: "y"}) },
		"edit phase":   func() (Result, error) { return f.c.EditPhase(ctx, plan.Phase{ID: "phase1", Title: "x", Description: "y"}) },
		"delete phase": func() (Result, error) { return f.c.DeletePhase(ctx, "phase1") },
		"move phase":   func() (Result, error) { return f.c.MovePhase(ctx, "phase1", editor.Down) },
		"add task":     func() (Result, error) { return f.c.AddTask(ctx, "phase1", newTask("x")) },
		"delete task":  func() (Result, error) { return f.c.DeleteTask(ctx, "phase1-task1") },
		"reorder": func() (Result, error) {
			return f.c.Reorder(ctx, editor.DragResult{
				Kind:        editor.DragTask,
				Source:      editor.Location{PhaseID: "phase1", Index: 0},
				Destination: &editor.Location{PhaseID: "phase2", Index: 0},
			})
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if _, err := op(); !errors.Is(err, ErrLocked) {
				t.Errorf("got %v, want ErrLocked", err)
			}
		})
	}
	if got := len(f.c.Plan().Phases[0].Tasks); got != before {
		t.Errorf("phase1 tasks: got %d, want %d", got, before)
	}

	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Errorf("runtime state edits should be allowed while locked: %v", err)
	}
}

func TestLockPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	locked, err := f.c.ToggleLock(ctx)
	if err != nil || !locked {
		t.Fatalf("ToggleLock = %v, %v", locked, err)
	}
	if !f.ws.LoadLocked(ctx) {
		t.Error("lock flag not persisted")
	}
	if err := f.c.Unlock(ctx); err != nil {
		t.Fatal(err)
	}
	if f.ws.LoadLocked(ctx) {
		t.Error("unlock not persisted")
	}
	want := []string{workspace.EventPlanLocked, workspace.EventPlanUnlocked}
	if evs := f.events(t); len(evs) != 2 || evs[0] != want[0] || evs[1] != want[1] {
		t.Errorf("journal: got %v, want %v", evs, want)
	}
}

func TestNotFoundIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func() (Result, error){
		"edit phase":   func() (Result, error) { return f.c.EditPhase(ctx, plan.Phase{ID: "nope", Title: "x", Description: "y"}) },
		"delete phase": func() (Result, error) { return f.c.DeletePhase(ctx, "nope") },
		"move phase":   func() (Result, error) { return f.c.MovePhase(ctx, "nope", editor.Up) },
		"add task":     func() (Result, error) { return f.c.AddTask(ctx, "nope", newTask("x")) },
		"edit task": func() (Result, error) {
			tk := newTask("x")
			tk.ID, tk.PhaseID = "nope", "phase1"
			return f.c.EditTask(ctx, tk)
		},
		"delete task": func() (Result, error) { return f.c.DeleteTask(ctx, "nope") },
	}
	for name, op := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := op()
			if err != nil {
				t.Errorf("got error %v, want nil", err)
			}
			if res.Changed {
				t.Error("not-found edit reported a change")
			}
		})
	}
	if evs := f.events(t); len(evs) != 0 {
		t.Errorf("journal should be empty, got %v", evs)
	}
}

func TestDeleteTaskPurgesStateAndSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}
	if !f.c.Select("phase1-task1") {
		t.Fatal("Select(task1) failed")
	}
	res, err := f.c.DeleteTask(ctx, "phase1-task1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Progress.Total != 13 || res.Progress.Completed != 0 {
		t.Errorf("result: %+v", res)
	}
	if has, _ := f.store.HasState(ctx, "phase1-task1"); has {
		t.Error("task1 state was not purged")
	}
	if f.c.Selected() != "" {
		t.Errorf("selection not cleared: %q", f.c.Selected())
	}
}

func TestDeletePhasePurgesItsTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := []string{}
	for _, tk := range f.c.Plan().Phases[0].Tasks {
		ids = append(ids, tk.ID)
		if _, err := f.c.ToggleComplete(ctx, tk.ID); err != nil {
			t.Fatal(err)
		}
	}
	f.c.Select(ids[0])

	if _, err := f.c.DeletePhase(ctx, "phase1"); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if has, _ := f.store.HasState(ctx, id); has {
			t.Errorf("state of %s survived phase delete", id)
		}
	}
	if f.c.Selected() != "" {
		t.Error("selection inside deleted phase not cleared")
	}
	if f.c.Plan().FindPhase("phase1") >= 0 {
		t.Error("phase1 still present")
	}
}

func TestMovePhaseBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.c.MovePhase(ctx, "phase1", editor.Up)
	if err != nil || res.Changed {
		t.Errorf("move first phase up = %+v, %v", res, err)
	}
	res, err = f.c.MovePhase(ctx, "phase1", editor.Down)
	if err != nil || !res.Changed {
		t.Fatalf("move down = %+v, %v", res, err)
	}
	if got := f.c.Plan().Phases[1].ID; got != "phase1" {
		t.Errorf("phase at 1: got %q, want phase1", got)
	}
}

func TestReorderTaskAcrossPhases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moved := f.c.Plan().Phases[0].Tasks[0].ID

	res, err := f.c.Reorder(ctx, editor.DragResult{
		Kind:        editor.DragTask,
		Source:      editor.Location{PhaseID: "phase1", Index: 0},
		Destination: &editor.Location{PhaseID: "phase2", Index: 1},
	})
	if err != nil || !res.Changed {
		t.Fatalf("Reorder = %+v, %v", res, err)
	}
	got, ok := f.c.Plan().Task(moved)
	if !ok || got.PhaseID != "phase2" {
		t.Errorf("moved task: %+v", got)
	}
	if f.c.Plan().Phases[1].Tasks[1].ID != moved {
		t.Error("task not at destination index")
	}

	res, err = f.c.Reorder(ctx, editor.DragResult{Kind: editor.DragTask, Source: editor.Location{PhaseID: "phase1"}})
	if err != nil || res.Changed {
		t.Errorf("cancelled drag = %+v, %v", res, err)
	}
}

func TestToggleComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.c.ToggleComplete(ctx, "phase1-task1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Progress.Completed != 1 {
		t.Errorf("completed: got %d, want 1", res.Progress.Completed)
	}
	st, found, err := f.c.TaskState(ctx, "phase1-task1")
	if err != nil || !found {
		t.Fatalf("TaskState = %v, %v", found, err)
	}
	if st.CompletedDate != "2024-05-06" {
		t.Errorf("completedDate: got %q, want 2024-05-06", st.CompletedDate)
	}
	if !st.UpdatedAt.Equal(fixedNow) {
		t.Errorf("updatedAt: got %v", st.UpdatedAt)
	}

	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}
	st, _, _ = f.c.TaskState(ctx, "phase1-task1")
	if st.Status != plan.TaskStatusPending || st.CompletedDate != "" {
		t.Errorf("reopened state: %+v", st)
	}

	if _, err := f.c.ToggleComplete(ctx, "missing"); !errors.Is(err, editor.ErrTaskNotFound) {
		t.Errorf("missing task: got %v, want ErrTaskNotFound", err)
	}
}

func TestSaveTaskStateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.SaveTaskState(ctx, "phase1-task1", plan.TaskState{Status: "done"})
	if err == nil {
		t.Error("expected invalid status error")
	}
	_, err = f.c.SaveTaskState(ctx, "phase1-task1", plan.TaskState{ScheduleDate: "tomorrow"})
	if err == nil {
		t.Error("expected invalid date error")
	}
	if f.store.Len() != 0 {
		t.Error("invalid state was stored")
	}
}

func TestImportReplacesPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}
	f.c.Select("phase1-task1")

	text := "title: Line 2\nphases:\n  - id: p1\n    title: Setup\n    description: d\n    tasks:\n      - id: a\n        title: A\n        description: d\n        timeEstimate: 1h\n        status: pending\n"
	res, err := f.c.Import(ctx, text)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Progress.Total != 1 {
		t.Errorf("progress: %+v", res.Progress)
	}
	if f.c.Plan().Title != "Line 2" {
		t.Errorf("title: got %q", f.c.Plan().Title)
	}
	if has, _ := f.store.HasState(ctx, "phase1-task1"); has {
		t.Error("previous task state survived import")
	}
	if f.c.Selected() != "" {
		t.Error("selection not cleared by import")
	}

	if _, err := f.c.Import(ctx, "{not json"); !errors.Is(err, transfer.ErrInvalidFormat) {
		t.Errorf("bad import: got %v, want ErrInvalidFormat", err)
	}
	if f.c.Plan().Title != "Line 2" {
		t.Error("failed import changed the plan")
	}
}

func TestImportKeepsProgressWhenPlanSaveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}
	f.backend.FailWrites(errors.New("disk full"))

	text := "title: Line 2\nphases:\n  - id: p1\n    title: Setup\n    description: d\n    tasks: []\n"
	if _, err := f.c.Import(ctx, text); err == nil {
		t.Fatal("expected the plan save to fail")
	}
	if f.c.Plan().Title != plan.Default().Title {
		t.Errorf("title: got %q, want the previous plan", f.c.Plan().Title)
	}
	st, err := f.store.LoadState(ctx, "phase1-task1")
	if err != nil || st.Status != plan.TaskStatusCompleted {
		t.Errorf("progress lost on failed import: %+v %v", st, err)
	}
}

func TestSetLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.c.SetLayout(ctx, 60); err != nil {
		t.Fatal(err)
	}
	if got := f.ws.LoadLayout(ctx).LeftPanelWidth; got != 60 {
		t.Errorf("stored width: got %d, want 60", got)
	}
	if err := f.c.SetLayout(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got := f.c.Layout().LeftPanelWidth; got != MinLeftPanelWidth {
		t.Errorf("clamped width: got %d, want %d", got, MinLeftPanelWidth)
	}
}

func TestPersistFailureLeavesPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.FailWrites(kv.ErrQuotaExceeded)

	_, err := f.c.AddTask(ctx, "phase1", newTask("x"))
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}
	if f.c.Plan().TaskCount() != 14 {
		t.Error("plan changed although it was not saved")
	}
}

func TestReloadDropsMissingSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.c.Select("phase1-task1")

	other, err := Open(ctx, f.ws, f.store, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.DeleteTask(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}

	if err := f.c.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if f.c.Selected() != "" {
		t.Error("selection of a deleted task survived reload")
	}
	if f.c.Plan().TaskCount() != 13 {
		t.Errorf("reloaded task count: got %d", f.c.Plan().TaskCount())
	}
}

func TestResetRestoresDefaultPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.c.DeletePhase(ctx, "phase4"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}
	if err := f.c.SetLayout(ctx, 50); err != nil {
		t.Fatal(err)
	}

	if err := f.c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := len(f.c.Plan().Phases); got != 4 {
		t.Errorf("phases after reset: got %d, want 4", got)
	}
	if f.store.Len() != 0 {
		t.Errorf("expected task state cleared, %d left", f.store.Len())
	}
	if got := f.c.Layout().LeftPanelWidth; got != workspace.DefaultLeftPanelWidth {
		t.Errorf("layout width: got %d", got)
	}
	evs := f.events(t)
	if evs[len(evs)-1] != workspace.EventPlanReset {
		t.Errorf("last event: got %q", evs[len(evs)-1])
	}
}

func TestResetRefusedWhileLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.c.Lock(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.c.Reset(ctx); !errors.Is(err, ErrLocked) {
		t.Errorf("got %v, want ErrLocked", err)
	}
}

func TestPruneRemovesOrphanedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.SaveState(ctx, "gone-task", plan.TaskState{Status: plan.TaskStatusCompleted}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.c.ToggleComplete(ctx, "phase1-task1"); err != nil {
		t.Fatal(err)
	}

	n, err := f.c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned: got %d, want 1", n)
	}
	if ok, _ := f.store.HasState(ctx, "gone-task"); ok {
		t.Error("orphaned state should be gone")
	}
	if ok, _ := f.store.HasState(ctx, "phase1-task1"); !ok {
		t.Error("state of a live task should remain")
	}

	n, err = f.c.Prune(ctx)
	if err != nil || n != 0 {
		t.Errorf("second prune: got %d, %v", n, err)
	}
}
