package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pablasso/plannah/internal/editor"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/progress"
	"github.com/pablasso/plannah/internal/tui/components"
	"github.com/pablasso/plannah/internal/tui/msgs"
	"github.com/pablasso/plannah/internal/tui/styles"
)

// ResizeStep is how many columns < and > change the left panel by.
const ResizeStep = 4

const phaseBarWidth = 8

type rowKind int

const (
	rowPhase rowKind = iota
	rowTask
)

type planRow struct {
	kind     rowKind
	phaseIdx int
	taskIdx  int
	id       string
}

// grab is an item picked up with space. targets lists every place it can
// be dropped, in screen order; target indexes into it.
type grab struct {
	id      string
	result  editor.DragResult
	targets []editor.Location
	target  int
}

func (g *grab) drop() editor.DragResult {
	r := g.result
	dst := g.targets[g.target]
	r.Destination = &dst
	return r
}

// PlanModel is the phase and task tree in the left panel.
type PlanModel struct {
	plan     *plan.Plan
	states   map[string]plan.TaskState
	phases   map[string]progress.Summary
	locked   bool
	selected string
	focused  bool

	rows          []planRow
	cursor        int
	grab          *grab
	confirmDelete string

	width  int
	height int
	scroll components.ScrollView
}

// NewPlanModel creates a PlanModel for p.
func NewPlanModel(p *plan.Plan) PlanModel {
	m := PlanModel{
		plan:    p,
		states:  map[string]plan.TaskState{},
		phases:  map[string]progress.Summary{},
		focused: true,
		scroll:  components.NewScrollView(0, 0),
	}
	m.rebuild()
	return m
}

// SetPlan replaces the plan, keeping the cursor on the same item when it
// still exists. A grab in progress is dropped.
func (m *PlanModel) SetPlan(p *plan.Plan, locked bool, selected string) {
	id := m.CursorID()
	m.plan = p
	m.locked = locked
	m.selected = selected
	m.grab = nil
	m.confirmDelete = ""
	m.rebuild()
	m.moveTo(id)
}

// SetSnapshot installs saved task state and phase progress.
func (m *PlanModel) SetSnapshot(states map[string]plan.TaskState, phases map[string]progress.Summary) {
	m.states = states
	m.phases = phases
	m.refresh()
}

// SetSize sets the panel dimensions.
func (m *PlanModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scroll.SetSize(width, height)
	m.refresh()
}

// SetFocused marks whether keys go to this panel.
func (m *PlanModel) SetFocused(focused bool) {
	m.focused = focused
	m.refresh()
}

// CursorID returns the id of the phase or task under the cursor.
func (m PlanModel) CursorID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.cursor].id
}

// Grabbing reports whether an item is being moved.
func (m PlanModel) Grabbing() bool { return m.grab != nil }

// Hints returns the key help for the status bar.
func (m PlanModel) Hints() []string {
	if m.grab != nil {
		return []string{"↑↓ Move", "Space Drop", "Esc Cancel"}
	}
	return []string{
		"↑↓ Navigate", "Enter Open", "x Done", "Space Grab", "K/J Move phase",
		"d Delete", "L Lock", "</> Resize", "t Timeline", "i Import", "e Export", "q Quit",
	}
}

// Update handles keys for the tree.
func (m PlanModel) Update(msg tea.Msg) (PlanModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.scroll, cmd = m.scroll.Update(msg)
		return m, cmd
	}
	if m.grab != nil {
		return m.updateGrab(key)
	}

	k := key.String()
	if k != "d" {
		m.confirmDelete = ""
	}

	switch k {
	case "up", "k":
		m.setCursor(m.cursor - 1)
	case "down", "j":
		m.setCursor(m.cursor + 1)
	case "home", "g":
		m.setCursor(0)
	case "end", "G":
		m.setCursor(len(m.rows) - 1)
	case "enter":
		if r, ok := m.current(); ok && r.kind == rowTask {
			return m, emit(msgs.SelectTaskMsg{TaskID: r.id})
		}
	case "x":
		if r, ok := m.current(); ok && r.kind == rowTask {
			return m, emit(msgs.ToggleCompleteMsg{TaskID: r.id})
		}
	case " ":
		if m.locked {
			return m, emit(msgs.StatusMsg{Text: "Plan is locked", IsError: true})
		}
		m.startGrab()
	case "d":
		return m.delete()
	case "K", "J":
		r, ok := m.current()
		if !ok {
			break
		}
		dir := editor.Up
		if k == "J" {
			dir = editor.Down
		}
		return m, emit(msgs.MovePhaseMsg{PhaseID: m.plan.Phases[r.phaseIdx].ID, Direction: dir})
	case "L":
		return m, emit(msgs.ToggleLockMsg{})
	case "<":
		return m, emit(msgs.ResizeMsg{Delta: -ResizeStep})
	case ">":
		return m, emit(msgs.ResizeMsg{Delta: ResizeStep})
	case "t":
		return m, emit(msgs.GoToTimelineMsg{})
	case "i":
		return m, emit(msgs.GoToFilePickerMsg{})
	case "e":
		return m, emit(msgs.ExportMsg{})
	}
	return m, nil
}

func (m PlanModel) updateGrab(key tea.KeyMsg) (PlanModel, tea.Cmd) {
	g := *m.grab
	m.grab = &g
	switch key.String() {
	case "up", "k":
		if g.target > 0 {
			g.target--
		}
	case "down", "j":
		if g.target < len(g.targets)-1 {
			g.target++
		}
	case " ", "enter":
		r := g.drop()
		m.grab = nil
		m.rebuild()
		m.moveTo(g.id)
		return m, emit(msgs.ReorderMsg{Result: r})
	case "esc":
		r := g.result
		m.grab = nil
		m.rebuild()
		m.moveTo(g.id)
		return m, emit(msgs.ReorderMsg{Result: r})
	default:
		return m, nil
	}
	m.rebuild()
	m.moveTo(g.id)
	return m, nil
}

func (m *PlanModel) startGrab() {
	r, ok := m.current()
	if !ok {
		return
	}
	g := &grab{id: r.id}
	if r.kind == rowPhase {
		g.result = editor.DragResult{Kind: editor.DragPhase, Source: editor.Location{Index: r.phaseIdx}}
		for i := range m.plan.Phases {
			g.targets = append(g.targets, editor.Location{Index: i})
		}
		g.target = r.phaseIdx
	} else {
		src := editor.Location{PhaseID: m.plan.Phases[r.phaseIdx].ID, Index: r.taskIdx}
		g.result = editor.DragResult{Kind: editor.DragTask, Source: src}
		for pi, ph := range m.plan.Phases {
			n := len(ph.Tasks)
			if pi == r.phaseIdx {
				n--
			}
			for i := 0; i <= n; i++ {
				loc := editor.Location{PhaseID: ph.ID, Index: i}
				if loc == src {
					g.target = len(g.targets)
				}
				g.targets = append(g.targets, loc)
			}
		}
	}
	m.grab = g
	m.rebuild()
	m.moveTo(g.id)
}

func (m PlanModel) delete() (PlanModel, tea.Cmd) {
	r, ok := m.current()
	if !ok {
		return m, nil
	}
	if m.confirmDelete != r.id {
		m.confirmDelete = r.id
		return m, emit(msgs.StatusMsg{Text: fmt.Sprintf("Press d again to delete %q", m.title(r))})
	}
	m.confirmDelete = ""
	if r.kind == rowPhase {
		return m, emit(msgs.DeletePhaseMsg{PhaseID: r.id})
	}
	return m, emit(msgs.DeleteTaskMsg{TaskID: r.id})
}

// shown returns the plan as drawn: with the grabbed item at its target.
func (m PlanModel) shown() *plan.Plan {
	if m.grab == nil || m.plan == nil {
		return m.plan
	}
	preview, err := editor.Reorder(m.plan, m.grab.drop())
	if err != nil {
		return m.plan
	}
	return preview
}

func (m *PlanModel) rebuild() {
	m.rows = nil
	if p := m.shown(); p != nil {
		for pi, ph := range p.Phases {
			m.rows = append(m.rows, planRow{kind: rowPhase, phaseIdx: pi, id: ph.ID})
			for ti, t := range ph.Tasks {
				m.rows = append(m.rows, planRow{kind: rowTask, phaseIdx: pi, taskIdx: ti, id: t.ID})
			}
		}
	}
	m.setCursor(m.cursor)
}

func (m *PlanModel) moveTo(id string) {
	for i, r := range m.rows {
		if r.id == id {
			m.setCursor(i)
			return
		}
	}
	m.setCursor(m.cursor)
}

func (m *PlanModel) setCursor(i int) {
	m.cursor = max(min(i, len(m.rows)-1), 0)
	m.refresh()
}

func (m *PlanModel) refresh() {
	p := m.shown()
	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		lines[i] = m.renderRow(p, r, i == m.cursor)
	}
	m.scroll.SetLines(lines)
	m.scroll.EnsureVisible(m.cursor)
}

func (m PlanModel) current() (planRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return planRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m PlanModel) title(r planRow) string {
	p := m.shown()
	if r.kind == rowPhase {
		return p.Phases[r.phaseIdx].Title
	}
	return p.Phases[r.phaseIdx].Tasks[r.taskIdx].Title
}

func (m PlanModel) renderRow(p *plan.Plan, r planRow, atCursor bool) string {
	prefix := "  "
	if atCursor {
		prefix = "› "
	}

	var plain, styled string
	if r.kind == rowPhase {
		ph := p.Phases[r.phaseIdx]
		bar := components.NewProgress(m.phases[ph.ID], phaseBarWidth).View()
		plain = prefix + ph.Title + "  " + bar
		styled = prefix + styles.PhaseStyle.Render(ph.Title) + "  " + styles.SubtleStyle.Render(bar)
	} else {
		t := p.Phases[r.phaseIdx].Tasks[r.taskIdx]
		status := t.Status.Normalized()
		if st, ok := m.states[t.ID]; ok {
			status = plan.EffectiveStatus(t, &st)
		}
		title := t.Title
		if t.ID == m.selected {
			title += " •"
		}
		plain = prefix + "  " + styles.StatusGlyph(status) + " " + title
		styled = prefix + "  " + styles.Status(status) + " " + title
	}

	switch {
	case m.grab != nil && r.id == m.grab.id:
		return styles.GrabbedStyle.Render(plain)
	case atCursor && m.focused:
		return styles.SelectedStyle.Render(plain)
	}
	return styled
}

// View renders the tree.
func (m PlanModel) View() string {
	if len(m.rows) == 0 {
		return styles.SubtleStyle.Render("No phases yet. Add one with `plannah phase add`.")
	}
	return m.scroll.View()
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
