// Package msgs defines the messages views send to the root model.
package msgs

import (
	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/progress"
)

// View transition messages

// GoToPlanMsg returns to the plan and detail panels.
type GoToPlanMsg struct{}

// GoToTimelineMsg opens the timeline view.
type GoToTimelineMsg struct{}

// GoToFilePickerMsg opens the import file picker.
type GoToFilePickerMsg struct{}

// Plan edits requested by the plan view

// SelectTaskMsg opens a task in the detail panel.
type SelectTaskMsg struct {
	TaskID string
}

// ToggleCompleteMsg flips a task between completed and pending.
type ToggleCompleteMsg struct {
	TaskID string
}

// DeletePhaseMsg deletes a phase and its tasks.
type DeletePhaseMsg struct {
	PhaseID string
}

// DeleteTaskMsg deletes a task.
type DeleteTaskMsg struct {
	TaskID string
}

// MovePhaseMsg shifts a phase one position.
type MovePhaseMsg struct {
	PhaseID   string
	Direction editor.Direction
}

// ReorderMsg applies a finished grab. A nil Destination was cancelled.
type ReorderMsg struct {
	Result editor.DragResult
}

// ToggleLockMsg locks or unlocks the plan.
type ToggleLockMsg struct{}

// ResizeMsg widens (positive) or narrows the left panel.
type ResizeMsg struct {
	Delta int
}

// ExportMsg writes the progress export.
type ExportMsg struct{}

// Results of background work

// FileSelectedMsg is sent when a file is picked for import.
type FileSelectedMsg struct {
	Path string
}

// FileReadMsg carries the contents of a picked file.
type FileReadMsg struct {
	Path string
	Text string
	Err  error
}

// ExportDoneMsg reports where the progress export was written.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// SnapshotMsg carries task state and progress computed off the update loop
// for the plan as it was at Version.
type SnapshotMsg struct {
	Version int
	States  map[string]plan.TaskState
	Total   progress.Summary
	Phases  map[string]progress.Summary
}

// PlanChangedMsg is sent when the stored plan changed on disk.
type PlanChangedMsg struct{}

// StatusMsg shows a transient message in the status bar.
type StatusMsg struct {
	Text    string
	IsError bool
}
