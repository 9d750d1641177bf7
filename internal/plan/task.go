package plan

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

// Task status constants
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// Statuses lists every task status in display order.
var Statuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusBlocked,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// Normalized maps empty or unknown statuses to pending.
func (s TaskStatus) Normalized() TaskStatus {
	if s.Valid() {
		return s
	}
	return TaskStatusPending
}

// Next returns the status that follows s in display order, wrapping around.
func (s TaskStatus) Next() TaskStatus {
	s = s.Normalized()
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return TaskStatusPending
}

// Label returns the status for display, such as "In Progress".
func (s TaskStatus) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s.Normalized()), "-", " "))
}

// ParseStatus accepts a status name or its label, ignoring case, spaces
// and underscores.
func ParseStatus(s string) (TaskStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	st := TaskStatus(key)
	return st, st.Valid()
}

// Task is a single unit of work in a phase.
//
// PhaseID is the owning phase. It is never serialized: nesting implies it, and
// Plan.Normalize restores it after decoding.
type Task struct {
	ID              string     `json:"id" yaml:"id" toml:"id"`
	PhaseID         string     `json:"-" yaml:"-" toml:"-"`
	Title           string     `json:"title" yaml:"title" toml:"title" validate:"required"`
	Description     string     `json:"description" yaml:"description" toml:"description" validate:"required"`
	TimeEstimate    string     `json:"timeEstimate" yaml:"timeEstimate" toml:"timeEstimate" validate:"required"`
	ScheduleDate    string     `json:"scheduleDate" yaml:"scheduleDate" toml:"scheduleDate" validate:"omitempty,datetime=2006-01-02"`
	ScheduleEndDate string     `json:"scheduleEndDate,omitempty" yaml:"scheduleEndDate,omitempty" toml:"scheduleEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompletedDate   string     `json:"completedDate" yaml:"completedDate" toml:"completedDate" validate:"omitempty,datetime=2006-01-02"`
	Assignee        string     `json:"assignee" yaml:"assignee" toml:"assignee"`
	SOPDocument     string     `json:"sopDocument" yaml:"sopDocument" toml:"sopDocument"`
	Tags            []string   `json:"tags" yaml:"tags" toml:"tags"`
	Status          TaskStatus `json:"status" yaml:"status" toml:"status" validate:"omitempty,oneof=pending in-progress completed blocked"`
	DependsOn       []string   `json:"dependsOn" yaml:"dependsOn" toml:"dependsOn"`
	Notes           string     `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Files           []string   `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
}

// Clone returns a copy of the task that shares no slices with t.
func (t Task) Clone() Task {
	out := t
	out.Tags = cloneStrings(t.Tags)
	out.DependsOn = cloneStrings(t.DependsOn)
	out.Files = cloneStrings(t.Files)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
