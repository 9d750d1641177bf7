package editor

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pablasso/plannah/internal/plan"
)

func fixture() *plan.Plan {
	p := &plan.Plan{
		Title: "Line",
		Phases: []plan.Phase{
			{ID: "p1", Title: "One", Description: "first", Tasks: []plan.Task{
				{ID: "p1-a", Title: "A"}, {ID: "p1-b", Title: "B"}, {ID: "p1-c", Title: "C"},
			}},
			{ID: "p2", Title: "Two", Description: "second", Tasks: []plan.Task{
				{ID: "p2-x", Title: "X"},
			}},
			{ID: "p3", Title: "Three", Description: "third", Tasks: []plan.Task{}},
		},
	}
	p.Normalize()
	return p
}

func phaseIDs(p *plan.Plan) string {
	ids := make([]string, len(p.Phases))
	for i, ph := range p.Phases {
		ids[i] = ph.ID
	}
	return strings.Join(ids, ",")
}

func taskIDs(ph plan.Phase) string {
	ids := make([]string, len(ph.Tasks))
	for i, t := range ph.Tasks {
		ids[i] = t.ID
	}
	return strings.Join(ids, ",")
}

func assertUnchanged(t *testing.T, before *plan.Plan, after *plan.Plan) {
	t.Helper()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("input plan was modified")
	}
}

func TestAddPhase(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	out, err := AddPhase(p, plan.Phase{ID: "p4", Title: "Four", Description: "fourth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := phaseIDs(out); got != "p1,p2,p3,p4" {
		t.Errorf("got %q, want %q", got, "p1,p2,p3,p4")
	}
	if out.Phases[3].Tasks == nil {
		t.Error("new phase should have an empty, non-nil task list")
	}
	assertUnchanged(t, orig, p)

	if _, err := AddPhase(p, plan.Phase{ID: "p1"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("got %v, want ErrDuplicateID", err)
	}
	if _, err := AddPhase(p, plan.Phase{ID: "p1-a"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("phase id colliding with a task id: got %v, want ErrDuplicateID", err)
	}
	if _, err := AddPhase(p, plan.Phase{}); !errors.Is(err, ErrMissingID) {
		t.Errorf("got %v, want ErrMissingID", err)
	}
}

func TestEditPhase(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	out, err := EditPhase(p, plan.Phase{ID: "p1", Title: "Renamed", Description: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Phases[0].Title != "Renamed" || out.Phases[0].Description != "new" {
		t.Errorf("phase not updated: %+v", out.Phases[0])
	}
	if got := taskIDs(out.Phases[0]); got != "p1-a,p1-b,p1-c" {
		t.Errorf("tasks should be preserved, got %q", got)
	}
	assertUnchanged(t, orig, p)

	if _, err := EditPhase(p, plan.Phase{ID: "nope"}); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("got %v, want ErrPhaseNotFound", err)
	}
}

func TestDeletePhase(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	out, removed, err := DeletePhase(p, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := phaseIDs(out); got != "p2,p3" {
		t.Errorf("got %q, want %q", got, "p2,p3")
	}
	if want := []string{"p1-a", "p1-b", "p1-c"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	assertUnchanged(t, orig, p)

	_, removed, err = DeletePhase(p, "p3")
	if err != nil || len(removed) != 0 {
		t.Errorf("empty phase: removed %v, err %v", removed, err)
	}

	if _, _, err := DeletePhase(p, "nope"); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("got %v, want ErrPhaseNotFound", err)
	}
}

func TestMovePhase(t *testing.T) {
	tests := []struct {
		name string
		id   string
		dir  Direction
		want string
	}{
		{"up from middle", "p2", Up, "p2,p1,p3"},
		{"down from middle", "p2", Down, "p1,p3,p2"},
		{"up at top is no-op", "p1", Up, "p1,p2,p3"},
		{"down at bottom is no-op", "p3", Down, "p1,p2,p3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := fixture()
			out, err := MovePhase(p, tc.id, tc.dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := phaseIDs(out); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if phaseIDs(p) != "p1,p2,p3" {
				t.Error("input plan was modified")
			}
		})
	}

	if _, err := MovePhase(fixture(), "nope", Up); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("got %v, want ErrPhaseNotFound", err)
	}
}

func TestAddTask(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	out, err := AddTask(p, "p3", plan.Task{ID: "p3-new", Title: "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := taskIDs(out.Phases[2]); got != "p3-new" {
		t.Errorf("got %q, want %q", got, "p3-new")
	}
	if out.Phases[2].Tasks[0].PhaseID != "p3" {
		t.Errorf("PhaseID = %q, want %q", out.Phases[2].Tasks[0].PhaseID, "p3")
	}
	assertUnchanged(t, orig, p)

	if _, err := AddTask(p, "nope", plan.Task{ID: "z"}); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("got %v, want ErrPhaseNotFound", err)
	}
	if _, err := AddTask(p, "p2", plan.Task{ID: "p1-a"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("got %v, want ErrDuplicateID", err)
	}
}

func TestEditTask(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	// The id does not follow any "<phase>-task-" shape; the carried PhaseID
	// alone locates it.
	edited := plan.Task{ID: "p2-x", PhaseID: "p2", Title: "X2", Description: "changed"}
	out, err := EditTask(p, edited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Phases[1].Tasks[0]; got.Title != "X2" || got.Description != "changed" {
		t.Errorf("task not replaced: %+v", got)
	}
	assertUnchanged(t, orig, p)

	if _, err := EditTask(p, plan.Task{ID: "p2-x", PhaseID: "nope"}); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("got %v, want ErrPhaseNotFound", err)
	}
	if _, err := EditTask(p, plan.Task{ID: "p2-x", PhaseID: "p1"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("wrong phase: got %v, want ErrTaskNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	p := fixture()
	orig := p.Clone()

	out, phaseID, err := DeleteTask(p, "p1-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phaseID != "p1" {
		t.Errorf("phaseID = %q, want %q", phaseID, "p1")
	}
	if got := taskIDs(out.Phases[0]); got != "p1-a,p1-c" {
		t.Errorf("got %q, want %q", got, "p1-a,p1-c")
	}
	assertUnchanged(t, orig, p)

	if _, _, err := DeleteTask(p, "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("got %v, want ErrTaskNotFound", err)
	}
}
