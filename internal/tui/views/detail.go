package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pablasso/plannah/internal/detail"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/tui/msgs"
	"github.com/pablasso/plannah/internal/tui/styles"
)

// inputFields are the single-line text fields, in form order.
var inputFields = []detail.Field{
	detail.FieldAssignee,
	detail.FieldScheduleDate,
	detail.FieldScheduleEndDate,
	detail.FieldCompletedDate,
	detail.FieldSOPDocument,
}

var fieldLabels = map[detail.Field]string{
	detail.FieldStatus:          "Status",
	detail.FieldAssignee:        "Assignee",
	detail.FieldScheduleDate:    "Start",
	detail.FieldScheduleEndDate: "End",
	detail.FieldCompletedDate:   "Completed",
	detail.FieldSOPDocument:     "SOP",
	detail.FieldNotes:           "Notes",
}

// Focus slots: status, the inputs, notes, attachments.
const slotStatus = 0

var (
	slotNotes = len(inputFields) + 1
	slotFiles = len(inputFields) + 2
	slotCount = len(inputFields) + 3
)

func isDateField(f detail.Field) bool {
	return f == detail.FieldScheduleDate || f == detail.FieldScheduleEndDate || f == detail.FieldCompletedDate
}

// DetailModel is the form for the selected task in the right panel.
type DetailModel struct {
	ctrl *detail.Controller

	inputs  []textinput.Model
	notes   textarea.Model
	addFile textinput.Model
	spinner spinner.Model

	focus      int
	fileCursor int
	fieldErr   string

	synced    bool
	syncedGen uint64

	focused bool
	width   int
	height  int
}

// NewDetailModel creates a DetailModel over ctrl.
func NewDetailModel(ctrl *detail.Controller) DetailModel {
	inputs := make([]textinput.Model, len(inputFields))
	for i, f := range inputFields {
		in := textinput.New()
		in.Prompt = ""
		in.Cursor.SetMode(cursor.CursorStatic)
		if isDateField(f) {
			in.Placeholder = "YYYY-MM-DD"
			in.CharLimit = len("2006-01-02")
		}
		inputs[i] = in
	}

	notes := textarea.New()
	notes.Placeholder = "Notes"
	notes.ShowLineNumbers = false
	notes.SetHeight(4)
	notes.Cursor.SetMode(cursor.CursorStatic)

	addFile := textinput.New()
	addFile.Prompt = "+ "
	addFile.Placeholder = "attach file"
	addFile.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SubtleStyle

	return DetailModel{
		ctrl:    ctrl,
		inputs:  inputs,
		notes:   notes,
		addFile: addFile,
		spinner: sp,
	}
}

// Init starts the spinner.
func (m DetailModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize sets the panel dimensions.
func (m *DetailModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	inner := max(width-styles.LabelStyle.GetWidth()-1, 10)
	for i := range m.inputs {
		m.inputs[i].Width = inner
	}
	m.addFile.Width = inner
	m.notes.SetWidth(max(width, 10))
}

// Focused reports whether keys go to the form.
func (m DetailModel) Focused() bool { return m.focused }

// Focus gives the form the keyboard at the field it last had.
func (m *DetailModel) Focus() tea.Cmd {
	m.focused = true
	return m.setFocus(m.focus)
}

// Blur takes the keyboard away and saves pending edits.
func (m *DetailModel) Blur() tea.Cmd {
	m.focused = false
	m.blurAll()
	return m.ctrl.Blur()
}

// Sync copies the controller's form into the inputs once per selection,
// after its state has loaded.
func (m *DetailModel) Sync() {
	c := m.ctrl
	if !c.Selected() {
		m.synced = false
		return
	}
	if c.LoadState() == detail.Unloaded || (m.synced && m.syncedGen == c.Generation()) {
		return
	}
	for i, f := range inputFields {
		m.inputs[i].SetValue(c.Value(f))
	}
	m.notes.SetValue(c.Value(detail.FieldNotes))
	m.addFile.Reset()
	m.fileCursor = 0
	m.fieldErr = ""
	m.synced = true
	m.syncedGen = c.Generation()
}

// Resync reloads the inputs after the form was changed from outside.
func (m *DetailModel) Resync() {
	m.synced = false
	m.Sync()
}

// Hints returns the key help for the status bar.
func (m DetailModel) Hints() []string {
	hints := []string{"Tab Next field", "Esc Back"}
	switch {
	case m.focus == slotStatus:
		hints = append(hints, "Space Cycle status")
	case m.focus == slotFiles:
		hints = append(hints, "Enter Attach", "↑↓ Pick", "Ctrl+D Remove")
	}
	return hints
}

// Update handles spinner ticks and, while focused, keys.
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if !m.focused || !m.ctrl.Selected() {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m DetailModel) handleKey(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		next := (m.focus + 1) % slotCount
		if msg.String() == "shift+tab" {
			next = (m.focus + slotCount - 1) % slotCount
		}
		save := m.ctrl.Blur()
		focus := m.setFocus(next)
		return m, tea.Batch(save, focus)
	case "esc":
		save := m.Blur()
		return m, tea.Batch(save, emit(msgs.GoToPlanMsg{}))
	}

	if m.ctrl.LoadState() == detail.Unloaded {
		return m, nil
	}

	switch {
	case m.focus == slotStatus:
		switch msg.String() {
		case " ", "enter", "right", "l":
			cmd, err := m.ctrl.CycleStatus()
			cmd = m.report(cmd, err)
			return m, cmd
		}
		return m, nil

	case m.focus == slotNotes:
		before := m.notes.Value()
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		if v := m.notes.Value(); v != before {
			save, err := m.ctrl.SetField(detail.FieldNotes, v)
			save = m.report(save, err)
			return m, tea.Batch(cmd, save)
		}
		return m, cmd

	case m.focus == slotFiles:
		return m.updateFiles(msg)
	}

	i := m.focus - 1
	f := inputFields[i]
	before := m.inputs[i].Value()
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	v := m.inputs[i].Value()
	if v == before {
		return m, cmd
	}
	if isDateField(f) && v != "" {
		if _, err := plan.ParseDate(v); err != nil {
			m.fieldErr = fmt.Sprintf("%s: use YYYY-MM-DD", fieldLabels[f])
			return m, cmd
		}
	}
	m.fieldErr = ""
	save, err := m.ctrl.SetField(f, v)
	save = m.report(save, err)
	return m, tea.Batch(cmd, save)
}

func (m DetailModel) updateFiles(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	files := m.ctrl.Form().Files
	switch msg.String() {
	case "up":
		m.fileCursor = max(m.fileCursor-1, 0)
		return m, nil
	case "down":
		m.fileCursor = max(min(m.fileCursor+1, len(files)-1), 0)
		return m, nil
	case "ctrl+d", "delete":
		if len(files) == 0 {
			return m, nil
		}
		cmd, err := m.ctrl.RemoveFile(m.fileCursor)
		m.fileCursor = max(min(m.fileCursor, len(files)-2), 0)
		cmd = m.report(cmd, err)
		return m, cmd
	case "enter":
		name := strings.TrimSpace(m.addFile.Value())
		if name == "" {
			return m, nil
		}
		m.addFile.Reset()
		cmd, err := m.ctrl.AddFile(filepath.Base(name))
		cmd = m.report(cmd, err)
		return m, cmd
	}
	var cmd tea.Cmd
	m.addFile, cmd = m.addFile.Update(msg)
	return m, cmd
}

// report shows a rejected edit under the form.
func (m *DetailModel) report(cmd tea.Cmd, err error) tea.Cmd {
	if err != nil {
		m.fieldErr = err.Error()
		return nil
	}
	return cmd
}

func (m *DetailModel) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.notes.Blur()
	m.addFile.Blur()
}

func (m *DetailModel) setFocus(slot int) tea.Cmd {
	m.blurAll()
	m.focus = slot
	if !m.focused {
		return nil
	}
	switch {
	case slot == slotNotes:
		return m.notes.Focus()
	case slot == slotFiles:
		return m.addFile.Focus()
	case slot > slotStatus:
		return m.inputs[slot-1].Focus()
	}
	return nil
}

// View renders the form.
func (m DetailModel) View() string {
	c := m.ctrl
	if !c.Selected() {
		return styles.SubtleStyle.Render("Select a task and press Enter to see its details.")
	}
	t := c.Task()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(t.Title))
	b.WriteString("\n")
	if t.Description != "" {
		b.WriteString(t.Description + "\n")
	}
	meta := []string{"Estimate: " + t.TimeEstimate}
	if len(t.Tags) > 0 {
		meta = append(meta, "Tags: "+strings.Join(t.Tags, ", "))
	}
	if len(t.DependsOn) > 0 {
		meta = append(meta, "Depends on: "+strings.Join(t.DependsOn, ", "))
	}
	b.WriteString(styles.SubtleStyle.Render(strings.Join(meta, "  ")))
	b.WriteString("\n\n")

	if c.LoadState() == detail.Unloaded {
		b.WriteString(m.spinner.View() + " Loading…")
		return b.String()
	}

	status := plan.TaskStatus(c.Value(detail.FieldStatus))
	b.WriteString(m.label(slotStatus, fieldLabels[detail.FieldStatus]))
	b.WriteString(styles.Status(status) + " " + styles.StatusStyle(status).Render(status.Label()))
	b.WriteString("\n")

	for i, f := range inputFields {
		b.WriteString(m.label(i+1, fieldLabels[f]))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString(m.label(slotNotes, fieldLabels[detail.FieldNotes]))
	b.WriteString("\n")
	b.WriteString(m.notes.View())
	b.WriteString("\n")

	b.WriteString(m.label(slotFiles, "Attachments"))
	b.WriteString("\n")
	for i, name := range c.Form().Files {
		line := fmt.Sprintf("  %d. %s", i+1, name)
		if m.focus == slotFiles && i == m.fileCursor {
			line = styles.SelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("  " + m.addFile.View())
	b.WriteString("\n\n")

	b.WriteString(m.saveState())
	if m.fieldErr != "" {
		b.WriteString("\n" + styles.ErrorStyle.Render(m.fieldErr))
	}
	return b.String()
}

func (m DetailModel) label(slot int, text string) string {
	if m.focused && m.focus == slot {
		return styles.SelectedStyle.Width(styles.LabelStyle.GetWidth()).Render(text)
	}
	return styles.LabelStyle.Render(text)
}

// saveState is the autosave indicator.
func (m DetailModel) saveState() string {
	c := m.ctrl
	switch {
	case c.Saving():
		return m.spinner.View() + " Saving…"
	case c.Err() != nil:
		return styles.ErrorStyle.Render("Save failed: " + c.Err().Error())
	case c.Dirty():
		return styles.SubtleStyle.Render("Unsaved changes")
	case !c.LastSaved().IsZero():
		return styles.SuccessStyle.Render("Saved at " + c.LastSaved().Local().Format("15:04:05"))
	}
	return ""
}
