package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pablasso/plannah/internal/tui/styles"
)

// StatusBar is the bottom line: a transient message on the left and key
// hints on the right.
type StatusBar struct {
	Message string
	IsError bool
}

// NewStatusBar creates a new StatusBar instance.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// Render returns the status bar for the given width. Hints are joined with
// " • " and dropped from the end until the line fits.
func (s StatusBar) Render(width int, hints []string) string {
	msg := s.Message
	if msg != "" {
		if s.IsError {
			msg = styles.ErrorStyle.Render(msg)
		} else {
			msg = styles.SuccessStyle.Render(msg)
		}
	}

	for n := len(hints); n >= 0; n-- {
		help := strings.Join(hints[:n], " • ")
		gap := width - lipgloss.Width(msg) - lipgloss.Width(help)
		if gap >= 1 || n == 0 {
			line := msg + strings.Repeat(" ", max(gap, 1)) + help
			if msg == "" && n > 0 && gap >= 1 {
				line = help + strings.Repeat(" ", gap)
			}
			return styles.StatusBarStyle.MaxWidth(width).Render(line)
		}
	}
	return ""
}
