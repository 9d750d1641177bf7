package views

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pablasso/plannah/internal/detail"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/tui/msgs"
)

var fixedNow = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func newForm(t *testing.T) (DetailModel, *detail.Controller, *taskstore.Memory) {
	t.Helper()
	store := taskstore.NewMemory()
	ctrl := detail.New(store, detail.Options{
		AutosaveInterval: time.Millisecond,
		AttachmentDelay:  time.Millisecond,
		Now:              func() time.Time { return fixedNow },
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	m := NewDetailModel(ctrl)
	m.SetSize(60, 30)
	return m, ctrl, store
}

func formTask() plan.Task {
	return plan.Task{
		ID:           "phase1-task1",
		PhaseID:      "phase1",
		Title:        "Stencil printing",
		Description:  "Print solder paste",
		TimeEstimate: "2 days",
		Tags:         []string{"smt"},
		Status:       plan.TaskStatusPending,
		Assignee:     "lee",
	}
}

// flatten runs cmd and returns its messages, expanding batches.
func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, flatten(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle routes messages through the controller the way the root model
// does, until nothing is left.
func settle(t *testing.T, m *DetailModel, ctrl *detail.Controller, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	queue := flatten(cmd)
	var seen []tea.Msg
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			t.Fatal("form did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		seen = append(seen, msg)
		queue = append(queue, flatten(ctrl.Update(msg))...)
		m.Sync()
	}
	return seen
}

func typeKeys(t *testing.T, m DetailModel, ctrl *detail.Controller, keys ...tea.KeyMsg) (DetailModel, []tea.Msg) {
	t.Helper()
	var seen []tea.Msg
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(k)
		seen = append(seen, settle(t, &m, ctrl, cmd)...)
	}
	return m, seen
}

func selectTask(t *testing.T, m *DetailModel, ctrl *detail.Controller) {
	t.Helper()
	settle(t, m, ctrl, ctrl.Select(formTask()))
	m.Focus()
}

func TestDetailModel_NothingSelected(t *testing.T) {
	m, _, _ := newForm(t)

	if !strings.Contains(m.View(), "Select a task") {
		t.Errorf("got %q", m.View())
	}
	if _, cmd := m.Update(key("x")); cmd != nil {
		t.Error("keys without a selection should do nothing")
	}
}

func TestDetailModel_ShowsLoadedTask(t *testing.T) {
	m, ctrl, store := newForm(t)
	_ = store.SaveState(context.Background(), "phase1-task1", plan.TaskState{
		Status:   plan.TaskStatusInProgress,
		Assignee: "kim",
		Files:    []string{"stencil.pdf"},
	})
	selectTask(t, &m, ctrl)

	view := m.View()
	for _, want := range []string{"Stencil printing", "Estimate: 2 days", "Tags: smt", "In Progress", "kim", "1. stencil.pdf"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestDetailModel_LoadingSpinner(t *testing.T) {
	m, ctrl, _ := newForm(t)
	_ = ctrl.Select(formTask())

	if !strings.Contains(m.View(), "Loading") {
		t.Errorf("got %q", m.View())
	}
	if _, cmd := m.Update(key("x")); cmd != nil {
		t.Error("edits before the state loads should be ignored")
	}
}

func TestDetailModel_EditAssigneeAutosaves(t *testing.T) {
	m, ctrl, store := newForm(t)
	selectTask(t, &m, ctrl)

	m, seen := typeKeys(t, m, ctrl, key("tab"), key("-wu"))

	if got := ctrl.Value(detail.FieldAssignee); got != "lee-wu" {
		t.Errorf("got %q, want %q", got, "lee-wu")
	}
	saved, err := store.LoadState(context.Background(), "phase1-task1")
	if err != nil {
		t.Fatalf("state was not autosaved: %v", err)
	}
	if saved.Assignee != "lee-wu" {
		t.Errorf("saved assignee: got %q, want %q", saved.Assignee, "lee-wu")
	}
	if !slices.ContainsFunc(seen, func(msg tea.Msg) bool { _, ok := msg.(detail.SavedMsg); return ok }) {
		t.Error("expected a SavedMsg")
	}
	if !strings.Contains(m.View(), "Saved at") {
		t.Error("expected the autosave indicator")
	}
}

func TestDetailModel_DateValidation(t *testing.T) {
	m, ctrl, _ := newForm(t)
	selectTask(t, &m, ctrl)

	m, _ = typeKeys(t, m, ctrl, key("tab"), key("tab"), key("2024-1"))
	if got := ctrl.Value(detail.FieldScheduleDate); got != "" {
		t.Errorf("partial date reached the form: %q", got)
	}
	if !strings.Contains(m.View(), "Start: use YYYY-MM-DD") {
		t.Error("expected a date hint")
	}

	m, _ = typeKeys(t, m, ctrl, key("2-01"))
	if got := ctrl.Value(detail.FieldScheduleDate); got != "2024-12-01" {
		t.Errorf("got %q, want %q", got, "2024-12-01")
	}
	if strings.Contains(m.View(), "use YYYY-MM-DD") {
		t.Error("hint should clear once the date is valid")
	}
}

func TestDetailModel_CycleStatus(t *testing.T) {
	m, ctrl, _ := newForm(t)
	selectTask(t, &m, ctrl)

	typeKeys(t, m, ctrl, key("space"))

	if got := ctrl.Value(detail.FieldStatus); got != string(plan.TaskStatusInProgress) {
		t.Errorf("got %q, want %q", got, plan.TaskStatusInProgress)
	}
}

func TestDetailModel_Attachments(t *testing.T) {
	m, ctrl, store := newForm(t)
	selectTask(t, &m, ctrl)

	shiftTab := tea.KeyMsg{Type: tea.KeyShiftTab}
	m, _ = typeKeys(t, m, ctrl, shiftTab, key("/tmp/specs/board.pdf"), key("enter"))
	if got := ctrl.Form().Files; !slices.Equal(got, []string{"board.pdf"}) {
		t.Fatalf("files: got %v", got)
	}
	saved, err := store.LoadState(context.Background(), "phase1-task1")
	if err != nil || !slices.Equal(saved.Files, []string{"board.pdf"}) {
		t.Fatalf("attachment not saved: %v %v", saved, err)
	}

	typeKeys(t, m, ctrl, tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := ctrl.Form().Files; len(got) != 0 {
		t.Errorf("files after remove: got %v", got)
	}
}

func TestDetailModel_EscReturnsToPlan(t *testing.T) {
	m, ctrl, store := newForm(t)
	selectTask(t, &m, ctrl)

	m, _ = typeKeys(t, m, ctrl, key("tab"), key("!"))
	m, seen := typeKeys(t, m, ctrl, key("esc"))

	if m.Focused() {
		t.Error("esc should blur the form")
	}
	if !slices.Contains(seen, tea.Msg(msgs.GoToPlanMsg{})) {
		t.Errorf("expected GoToPlanMsg in %v", seen)
	}
	if saved, err := store.LoadState(context.Background(), "phase1-task1"); err != nil || saved.Assignee != "lee!" {
		t.Errorf("blur should save: %v %v", saved, err)
	}
}

func TestDetailModel_Resync(t *testing.T) {
	m, ctrl, _ := newForm(t)
	selectTask(t, &m, ctrl)

	if _, err := ctrl.SetField(detail.FieldAssignee, "ana"); err != nil {
		t.Fatal(err)
	}
	m.Sync()
	if m.inputs[0].Value() != "lee" {
		t.Errorf("Sync should not overwrite inputs within a selection, got %q", m.inputs[0].Value())
	}
	m.Resync()
	if m.inputs[0].Value() != "ana" {
		t.Errorf("got %q, want %q", m.inputs[0].Value(), "ana")
	}
}
