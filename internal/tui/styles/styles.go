// Package styles defines shared lipgloss styles for the planner and the
// command line output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pablasso/plannah/internal/plan"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#5FAFAF") // Teal accent
	secondaryColor = lipgloss.Color("#666666") // Gray for secondary text
	successColor   = lipgloss.Color("#87AF87") // Muted sage for success
	errorColor     = lipgloss.Color("#AF5F5F") // Muted terracotta for errors
	warnColor      = lipgloss.Color("#D7AF5F") // Amber for in-progress work

	// TitleStyle for headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// PhaseStyle for phase headings
	PhaseStyle = lipgloss.NewStyle().
			Bold(true)

	// SubtleStyle for hints/help text
	SubtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	// SelectedStyle for the cursor row
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// GrabbedStyle for a row being moved
	GrabbedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	// StatusBarStyle for bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	// BoxStyle for panel borders
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	// FocusedBoxStyle for the panel with focus
	FocusedBoxStyle = BoxStyle.
			BorderForeground(primaryColor)

	// LabelStyle for form labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Width(12)

	// SuccessStyle for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// LockedStyle for the lock badge
	LockedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)
)

var statusStyles = map[plan.TaskStatus]lipgloss.Style{
	plan.TaskStatusPending:    lipgloss.NewStyle().Foreground(secondaryColor),
	plan.TaskStatusInProgress: lipgloss.NewStyle().Foreground(warnColor),
	plan.TaskStatusCompleted:  lipgloss.NewStyle().Foreground(successColor),
	plan.TaskStatusBlocked:    lipgloss.NewStyle().Foreground(errorColor),
}

var statusGlyphs = map[plan.TaskStatus]string{
	plan.TaskStatusPending:    "[ ]",
	plan.TaskStatusInProgress: "[~]",
	plan.TaskStatusCompleted:  "[x]",
	plan.TaskStatusBlocked:    "[!]",
}

// StatusGlyph returns the checkbox shown for a status.
func StatusGlyph(s plan.TaskStatus) string {
	return statusGlyphs[s.Normalized()]
}

// StatusStyle returns the color of a status.
func StatusStyle(s plan.TaskStatus) lipgloss.Style {
	return statusStyles[s.Normalized()]
}

// Status renders a status glyph in its color.
func Status(s plan.TaskStatus) string {
	return StatusStyle(s).Render(StatusGlyph(s))
}
