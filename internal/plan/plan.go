package plan

import (
	"time"

	"github.com/pablasso/plannah/internal/util"
)

// Plan is a manufacturing checklist: a title and an ordered list of phases.
type Plan struct {
	Title  string  `json:"title" yaml:"title" toml:"title"`
	Phases []Phase `json:"phases" yaml:"phases" toml:"phases"`
}

// Phase is an ordered, named group of tasks.
type Phase struct {
	ID          string `json:"id" yaml:"id" toml:"id" validate:"required"`
	Title       string `json:"title" yaml:"title" toml:"title" validate:"required"`
	Description string `json:"description" yaml:"description" toml:"description" validate:"required"`
	Tasks       []Task `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// Clone returns a deep copy of the plan. Editing the copy never affects p.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{Title: p.Title}
	if p.Phases != nil {
		out.Phases = make([]Phase, len(p.Phases))
		for i := range p.Phases {
			out.Phases[i] = p.Phases[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the phase and its tasks.
func (ph Phase) Clone() Phase {
	out := ph
	if ph.Tasks != nil {
		out.Tasks = make([]Task, len(ph.Tasks))
		for i := range ph.Tasks {
			out.Tasks[i] = ph.Tasks[i].Clone()
		}
	}
	return out
}

// FindPhase returns the index of the phase with the given id, or -1.
func (p *Plan) FindPhase(id string) int {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the phase and task indexes of the task with the given id.
// Both are -1 when no task matches.
func (p *Plan) FindTask(id string) (phaseIdx, taskIdx int) {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// Task returns a copy of the task with the given id.
func (p *Plan) Task(id string) (Task, bool) {
	pi, ti := p.FindTask(id)
	if pi < 0 {
		return Task{}, false
	}
	return p.Phases[pi].Tasks[ti].Clone(), true
}

// AllTasks returns every task in plan order, each carrying its owning phase id.
func (p *Plan) AllTasks() []Task {
	var tasks []Task
	for _, ph := range p.Phases {
		for _, t := range ph.Tasks {
			t = t.Clone()
			t.PhaseID = ph.ID
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// TaskIDs returns the id of every task in plan order.
func (p *Plan) TaskIDs() []string {
	var ids []string
	for _, ph := range p.Phases {
		for _, t := range ph.Tasks {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// TaskCount returns the number of tasks across all phases.
func (p *Plan) TaskCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Tasks)
	}
	return n
}

// Normalize sets PhaseID on every task from its owning phase.
// Plans decoded from storage or import files don't carry it.
func (p *Plan) Normalize() {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			p.Phases[i].Tasks[j].PhaseID = p.Phases[i].ID
		}
	}
}

// NewPhaseID returns a time-based phase identifier that no phase of p uses.
func (p *Plan) NewPhaseID(now time.Time) string {
	return util.UniqueID(util.TimeID("phase", now), func(id string) bool {
		return p.FindPhase(id) >= 0
	})
}

// NewTaskID returns a time-based task identifier within the given phase that
// no task of p uses.
func (p *Plan) NewTaskID(phaseID string, now time.Time) string {
	return util.UniqueID(util.TimeID(phaseID+"-task", now), func(id string) bool {
		pi, _ := p.FindTask(id)
		return pi >= 0
	})
}

// HasID reports whether any phase or task of p uses id.
func (p *Plan) HasID(id string) bool {
	if p.FindPhase(id) >= 0 {
		return true
	}
	pi, _ := p.FindTask(id)
	return pi >= 0
}
