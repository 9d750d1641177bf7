package editor

import (
	"fmt"

	"github.com/pablasso/plannah/internal/plan"
)

// DragKind says what a drag moved.
type DragKind string

const (
	DragTask  DragKind = "task"
	DragPhase DragKind = "phase"
)

// Location is a position in the plan. For task drags PhaseID names the
// container; phase drags ignore it.
type Location struct {
	PhaseID string
	Index   int
}

// DragResult describes a completed drag. A nil Destination means the drag
// was cancelled.
type DragResult struct {
	Kind        DragKind
	Source      Location
	Destination *Location
}

// Noop reports whether applying r would leave the plan unchanged.
func (r DragResult) Noop() bool {
	return r.Destination == nil || *r.Destination == r.Source
}

// Reorder removes the dragged item from its source and inserts it at the
// destination. Destination indexes refer to the list after removal.
func Reorder(p *plan.Plan, r DragResult) (*plan.Plan, error) {
	if r.Noop() {
		return p.Clone(), nil
	}
	switch r.Kind {
	case DragPhase:
		return reorderPhase(p, r.Source.Index, r.Destination.Index)
	case DragTask, "":
		return reorderTask(p, r.Source, *r.Destination)
	default:
		return nil, fmt.Errorf("unknown drag kind %q", r.Kind)
	}
}

func reorderPhase(p *plan.Plan, from, to int) (*plan.Plan, error) {
	out := p.Clone()
	if from < 0 || from >= len(out.Phases) {
		return nil, fmt.Errorf("move phase from %d: %w", from, ErrIndexOutOfRange)
	}
	if to < 0 || to > len(out.Phases)-1 {
		return nil, fmt.Errorf("move phase to %d: %w", to, ErrIndexOutOfRange)
	}
	moved := out.Phases[from]
	out.Phases = append(out.Phases[:from], out.Phases[from+1:]...)
	out.Phases = insert(out.Phases, to, moved)
	return out, nil
}

func reorderTask(p *plan.Plan, src, dst Location) (*plan.Plan, error) {
	out := p.Clone()
	si := out.FindPhase(src.PhaseID)
	if si < 0 {
		return nil, fmt.Errorf("move task from %s: %w", src.PhaseID, ErrPhaseNotFound)
	}
	di := out.FindPhase(dst.PhaseID)
	if di < 0 {
		return nil, fmt.Errorf("move task to %s: %w", dst.PhaseID, ErrPhaseNotFound)
	}

	srcTasks := out.Phases[si].Tasks
	if src.Index < 0 || src.Index >= len(srcTasks) {
		return nil, fmt.Errorf("move task from %s[%d]: %w", src.PhaseID, src.Index, ErrIndexOutOfRange)
	}
	limit := len(out.Phases[di].Tasks)
	if si == di {
		limit--
	}
	if dst.Index < 0 || dst.Index > limit {
		return nil, fmt.Errorf("move task to %s[%d]: %w", dst.PhaseID, dst.Index, ErrIndexOutOfRange)
	}

	moved := srcTasks[src.Index]
	out.Phases[si].Tasks = append(srcTasks[:src.Index], srcTasks[src.Index+1:]...)
	moved.PhaseID = out.Phases[di].ID
	out.Phases[di].Tasks = insert(out.Phases[di].Tasks, dst.Index, moved)
	return out, nil
}

func insert[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
