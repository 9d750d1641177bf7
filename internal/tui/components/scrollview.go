package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScrollView is a fixed-height window over a list of rendered lines with a
// one-column scrollbar on the right.
type ScrollView struct {
	viewport viewport.Model
	lines    []string
	width    int // total width including the scrollbar
	height   int
}

// NewScrollView creates a ScrollView. width includes the scrollbar column.
func NewScrollView(width, height int) ScrollView {
	s := ScrollView{viewport: viewport.New(max(width-1, 0), max(height, 0))}
	s.width, s.height = width, height
	return s
}

// SetSize changes the dimensions, keeping the scroll offset in range.
func (s *ScrollView) SetSize(width, height int) {
	s.width, s.height = width, max(height, 0)
	s.viewport.Width = max(width-1, 0)
	s.viewport.Height = s.height
	s.sync()
}

// SetLines replaces the content, keeping the scroll offset.
func (s *ScrollView) SetLines(lines []string) {
	s.lines = lines
	s.sync()
}

// sync loads the lines into the viewport cut to the content width, since
// the viewport wraps anything wider.
func (s *ScrollView) sync() {
	clip := lipgloss.NewStyle().MaxWidth(s.viewport.Width)
	cut := make([]string, len(s.lines))
	for i, l := range s.lines {
		cut[i] = clip.Render(l)
	}
	s.viewport.SetContent(strings.Join(cut, "\n"))
	s.viewport.SetYOffset(s.viewport.YOffset)
}

// Lines returns the content.
func (s ScrollView) Lines() []string { return s.lines }

// Offset returns the index of the first visible line.
func (s ScrollView) Offset() int { return s.viewport.YOffset }

// Update scrolls on keys and the mouse wheel.
func (s ScrollView) Update(msg tea.Msg) (ScrollView, tea.Cmd) {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

// EnsureVisible scrolls the least amount that brings line i into view.
func (s *ScrollView) EnsureVisible(i int) {
	if i < 0 || i >= len(s.lines) || s.height == 0 {
		return
	}
	top := s.viewport.YOffset
	switch {
	case i < top:
		s.viewport.SetYOffset(i)
	case i >= top+s.height:
		s.viewport.SetYOffset(i - s.height + 1)
	}
}

// View renders the visible lines padded to width with the scrollbar.
func (s ScrollView) View() string {
	if s.height == 0 {
		return ""
	}
	content := strings.Split(s.viewport.View(), "\n")
	bar := Scrollbar(s.height, len(s.lines), s.viewport.YOffset)
	contentWidth := max(s.width-1, 0)

	out := make([]string, s.height)
	for i := range out {
		line := ""
		if i < len(content) {
			line = content[i]
		}
		if pad := contentWidth - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[i] = line + bar[i]
	}
	return strings.Join(out, "\n")
}

// Scrollbar returns one cell per visible row: blank when everything fits,
// otherwise a track with a thumb sized and placed by the visible fraction.
func Scrollbar(height, total, offset int) []string {
	cells := make([]string, max(height, 0))
	if total <= height {
		for i := range cells {
			cells[i] = " "
		}
		return cells
	}
	thumb := max(height*height/total, 1)
	top := 0
	if span := total - height; span > 0 {
		top = min(max(offset, 0)*(height-thumb)/span, height-thumb)
	}
	for i := range cells {
		if i >= top && i < top+thumb {
			cells[i] = "█"
		} else {
			cells[i] = "│"
		}
	}
	return cells
}
