package plan

import "time"

// TaskState is the mutable, persisted subset of a task's fields. When present
// it overlays the static task definition.
type TaskState struct {
	Status          TaskStatus `json:"status" yaml:"status" toml:"status"`
	Assignee        string     `json:"assignee" yaml:"assignee" toml:"assignee"`
	ScheduleDate    string     `json:"scheduleDate" yaml:"scheduleDate" toml:"scheduleDate"`
	ScheduleEndDate string     `json:"scheduleEndDate,omitempty" yaml:"scheduleEndDate,omitempty" toml:"scheduleEndDate,omitempty"`
	CompletedDate   string     `json:"completedDate" yaml:"completedDate" toml:"completedDate"`
	SOPDocument     string     `json:"sopDocument" yaml:"sopDocument" toml:"sopDocument"`
	Notes           string     `json:"notes" yaml:"notes" toml:"notes"`
	Files           []string   `json:"files" yaml:"files" toml:"files"`
	UpdatedAt       time.Time  `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty" toml:"updatedAt,omitzero"`
}

// Clone returns a copy of the state that shares no slices with s.
func (s TaskState) Clone() TaskState {
	out := s
	out.Files = cloneStrings(s.Files)
	return out
}

// StateFromTask returns the state a task has before anything was persisted
// for it: its own field values.
func StateFromTask(t Task) TaskState {
	return TaskState{
		Status:          t.Status.Normalized(),
		Assignee:        t.Assignee,
		ScheduleDate:    t.ScheduleDate,
		ScheduleEndDate: t.ScheduleEndDate,
		CompletedDate:   t.CompletedDate,
		SOPDocument:     t.SOPDocument,
		Notes:           t.Notes,
		Files:           cloneStrings(t.Files),
	}
}

// Overlay returns t with every field of state applied on top. A nil state
// leaves the task's own values authoritative.
//
// The state is a full snapshot, so empty strings in it win too. The one
// exception is an empty status, which can only come from a hand-edited
// payload and falls back to the task's status.
func Overlay(t Task, state *TaskState) Task {
	out := t.Clone()
	if state == nil {
		return out
	}
	if state.Status != "" {
		out.Status = state.Status
	}
	out.Assignee = state.Assignee
	out.ScheduleDate = state.ScheduleDate
	out.ScheduleEndDate = state.ScheduleEndDate
	out.CompletedDate = state.CompletedDate
	out.SOPDocument = state.SOPDocument
	out.Notes = state.Notes
	out.Files = cloneStrings(state.Files)
	return out
}

// EffectiveStatus returns the status that counts for progress: the state's
// when one exists, otherwise the task's own.
func EffectiveStatus(t Task, state *TaskState) TaskStatus {
	if state != nil && state.Status != "" {
		return state.Status.Normalized()
	}
	return t.Status.Normalized()
}
