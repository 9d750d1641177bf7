// Package editor implements structural edits of a plan. Every operation
// works on a clone and returns it; the input plan is never modified.
package editor

import (
	"errors"
	"fmt"

	"github.com/pablasso/plannah/internal/plan"
)

var (
	ErrPhaseNotFound   = errors.New("phase not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrDuplicateID     = errors.New("id already in use")
	ErrMissingID       = errors.New("id is required")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Direction is the way MovePhase shifts a phase.
type Direction int

const (
	Up Direction = iota
	Down
)

// AddPhase appends ph to the plan.
func AddPhase(p *plan.Plan, ph plan.Phase) (*plan.Plan, error) {
	if ph.ID == "" {
		return nil, fmt.Errorf("add phase: %w", ErrMissingID)
	}
	if p.HasID(ph.ID) {
		return nil, fmt.Errorf("add phase %s: %w", ph.ID, ErrDuplicateID)
	}
	out := p.Clone()
	ph = ph.Clone()
	if ph.Tasks == nil {
		ph.Tasks = []plan.Task{}
	}
	for i := range ph.Tasks {
		ph.Tasks[i].PhaseID = ph.ID
	}
	out.Phases = append(out.Phases, ph)
	return out, nil
}

// EditPhase replaces the title and description of the phase with ph.ID.
// Its tasks are kept.
func EditPhase(p *plan.Plan, ph plan.Phase) (*plan.Plan, error) {
	out := p.Clone()
	i := out.FindPhase(ph.ID)
	if i < 0 {
		return nil, fmt.Errorf("edit phase %s: %w", ph.ID, ErrPhaseNotFound)
	}
	out.Phases[i].Title = ph.Title
	out.Phases[i].Description = ph.Description
	return out, nil
}

// DeletePhase removes a phase and returns the ids of the tasks it held.
func DeletePhase(p *plan.Plan, phaseID string) (*plan.Plan, []string, error) {
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return nil, nil, fmt.Errorf("delete phase %s: %w", phaseID, ErrPhaseNotFound)
	}
	removed := make([]string, 0, len(out.Phases[i].Tasks))
	for _, t := range out.Phases[i].Tasks {
		removed = append(removed, t.ID)
	}
	out.Phases = append(out.Phases[:i], out.Phases[i+1:]...)
	return out, removed, nil
}

// MovePhase swaps a phase with its neighbour. Moving past either end leaves
// the order unchanged.
func MovePhase(p *plan.Plan, phaseID string, dir Direction) (*plan.Plan, error) {
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return nil, fmt.Errorf("move phase %s: %w", phaseID, ErrPhaseNotFound)
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(out.Phases) {
		return out, nil
	}
	out.Phases[i], out.Phases[j] = out.Phases[j], out.Phases[i]
	return out, nil
}

// AddTask appends t to the phase with phaseID.
func AddTask(p *plan.Plan, phaseID string, t plan.Task) (*plan.Plan, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("add task: %w", ErrMissingID)
	}
	out := p.Clone()
	i := out.FindPhase(phaseID)
	if i < 0 {
		return nil, fmt.Errorf("add task to %s: %w", phaseID, ErrPhaseNotFound)
	}
	if out.HasID(t.ID) {
		return nil, fmt.Errorf("add task %s: %w", t.ID, ErrDuplicateID)
	}
	t = t.Clone()
	t.PhaseID = phaseID
	out.Phases[i].Tasks = append(out.Phases[i].Tasks, t)
	return out, nil
}

// EditTask replaces the task with t.ID inside the phase named by t.PhaseID.
func EditTask(p *plan.Plan, t plan.Task) (*plan.Plan, error) {
	out := p.Clone()
	pi := out.FindPhase(t.PhaseID)
	if pi < 0 {
		return nil, fmt.Errorf("edit task %s: phase %q: %w", t.ID, t.PhaseID, ErrPhaseNotFound)
	}
	tasks := out.Phases[pi].Tasks
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t.Clone()
			return out, nil
		}
	}
	return nil, fmt.Errorf("edit task %s: %w", t.ID, ErrTaskNotFound)
}

// DeleteTask removes a task and returns the id of the phase that held it.
func DeleteTask(p *plan.Plan, taskID string) (*plan.Plan, string, error) {
	out := p.Clone()
	pi, ti := out.FindTask(taskID)
	if pi < 0 {
		return nil, "", fmt.Errorf("delete task %s: %w", taskID, ErrTaskNotFound)
	}
	tasks := out.Phases[pi].Tasks
	out.Phases[pi].Tasks = append(tasks[:ti], tasks[ti+1:]...)
	return out, out.Phases[pi].ID, nil
}
