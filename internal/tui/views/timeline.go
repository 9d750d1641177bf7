package views

import (
	"bytes"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pablasso/plannah/internal/schedule"
	"github.com/pablasso/plannah/internal/tui/components"
	"github.com/pablasso/plannah/internal/tui/msgs"
	"github.com/pablasso/plannah/internal/tui/styles"
)

const maxTimelineLabel = 28

// TimelineModel shows the schedule as a scrollable Gantt chart.
type TimelineModel struct {
	timeline schedule.Timeline
	scroll   components.ScrollView
	width    int
	height   int
	err      error
}

// NewTimelineModel creates an empty TimelineModel.
func NewTimelineModel() TimelineModel {
	return TimelineModel{scroll: components.NewScrollView(0, 0)}
}

// SetTimeline replaces the chart.
func (m *TimelineModel) SetTimeline(tl schedule.Timeline) {
	m.timeline = tl
	m.render()
}

// SetSize sets the view dimensions. Two lines are kept for the title.
func (m *TimelineModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scroll.SetSize(width, max(height-2, 0))
	m.render()
}

func (m *TimelineModel) render() {
	label := min(maxTimelineLabel, m.width/3)
	bar := max(m.width-label-2, 1)
	var buf bytes.Buffer
	if err := schedule.Render(&buf, m.timeline, label, bar); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.scroll.SetLines(strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"))
}

// Hints returns the key help for the status bar.
func (m TimelineModel) Hints() []string {
	return []string{"↑↓ Scroll", "Esc Back", "q Quit"}
}

// Update scrolls, or returns to the plan on esc or t.
func (m TimelineModel) Update(msg tea.Msg) (TimelineModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "t":
			return m, emit(msgs.GoToPlanMsg{})
		}
	}
	var cmd tea.Cmd
	m.scroll, cmd = m.scroll.Update(msg)
	return m, cmd
}

// View renders the chart under a title.
func (m TimelineModel) View() string {
	title := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, styles.TitleStyle.UnsetMarginBottom().Render("Timeline"))
	if m.err != nil {
		return title + "\n\n" + styles.ErrorStyle.Render(m.err.Error())
	}
	return title + "\n\n" + m.scroll.View()
}
