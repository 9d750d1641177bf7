// Package tui is the interactive planner: the phase and task tree, the
// task detail form, the timeline and the import picker.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/detail"
	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/progress"
	"github.com/pablasso/plannah/internal/schedule"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/transfer"
	"github.com/pablasso/plannah/internal/tui/components"
	"github.com/pablasso/plannah/internal/tui/msgs"
	"github.com/pablasso/plannah/internal/tui/styles"
	"github.com/pablasso/plannah/internal/tui/views"
)

// View represents the different screens in the TUI.
type View int

const (
	ViewPlan View = iota
	ViewTimeline
	ViewFilePicker
)

// Minimum terminal dimensions for the two-panel layout.
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 15
)

// headerHeight is the title line plus a blank line.
const headerHeight = 2

// minDetailWidth keeps the right panel usable when the left one grows.
const minDetailWidth = 30

type timelineMsg struct {
	timeline schedule.Timeline
}

// Model is the main Bubble Tea model that orchestrates all views.
type Model struct {
	ctx    context.Context
	ctrl   *app.Controller
	form   *detail.Controller
	opts   Options
	logger *slog.Logger

	currentView View
	detailFocus bool
	width       int
	height      int

	plan     views.PlanModel
	detail   views.DetailModel
	timeline views.TimelineModel
	picker   views.FilePickerModel

	total     progress.Summary
	version   int
	statusBar components.StatusBar
}

// Run starts the TUI application and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil {
		return errors.New("tui: no controller")
	}
	p := tea.NewProgram(
		NewModel(ctx, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// NewModel builds the root model over opts.Controller.
func NewModel(ctx context.Context, opts Options) Model {
	opts = opts.withDefaults()
	ctrl := opts.Controller
	form := detail.New(ctrl.Store(), detail.Options{
		AutosaveInterval: opts.AutosaveInterval,
		AttachmentDelay:  opts.AttachmentDelay,
		Now:              opts.Now,
		Logger:           opts.Logger,
	})

	m := Model{
		ctx:         ctx,
		ctrl:        ctrl,
		form:        form,
		opts:        opts,
		logger:      opts.Logger,
		currentView: ViewPlan,
		plan:        views.NewPlanModel(ctrl.Plan()),
		detail:      views.NewDetailModel(form),
		timeline:    views.NewTimelineModel(),
		statusBar:   components.NewStatusBar(),
	}
	m.plan.SetPlan(ctrl.Plan(), ctrl.Locked(), ctrl.Selected())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.snapshot(m.version), m.detail.Init(), m.waitForChange()}
	if id := m.ctrl.Selected(); id != "" {
		if t, ok := m.ctrl.Plan().Task(id); ok {
			cmds = append(cmds, m.form.Select(t))
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if cmd := m.form.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.handle(msg))
	m.detail.Sync()
	return m, tea.Batch(cmds...)
}

func (m *Model) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd

	case msgs.SnapshotMsg:
		if msg.Version == m.version {
			m.total = msg.Total
			m.plan.SetSnapshot(msg.States, msg.Phases)
		}
		return nil

	case msgs.PlanChangedMsg:
		if err := m.ctrl.Reload(m.ctx); err != nil {
			m.setStatus(fmt.Sprintf("Failed to reload plan: %v", err), true)
		} else {
			m.syncPlan()
		}
		return tea.Batch(m.refresh(), m.waitForChange())

	case detail.SavedMsg:
		m.ctrl.RecordStateSaved(msg.TaskID, msg.State)
		return m.refresh()
	case detail.FlushedMsg:
		m.ctrl.RecordStateSaved(msg.TaskID, msg.State)
		return m.refresh()
	case detail.SaveFailedMsg:
		m.setStatus(fmt.Sprintf("Failed to save %s: %v", msg.TaskID, msg.Err), true)
		return nil

	case msgs.StatusMsg:
		m.setStatus(msg.Text, msg.IsError)
		return nil

	case msgs.SelectTaskMsg:
		return m.selectTask(msg.TaskID)
	case msgs.ToggleCompleteMsg:
		return m.toggleComplete(msg.TaskID)
	case msgs.DeletePhaseMsg:
		res, err := m.ctrl.DeletePhase(m.ctx, msg.PhaseID)
		return m.apply(res, err, "Phase deleted")
	case msgs.DeleteTaskMsg:
		res, err := m.ctrl.DeleteTask(m.ctx, msg.TaskID)
		return m.apply(res, err, "Task deleted")
	case msgs.MovePhaseMsg:
		res, err := m.ctrl.MovePhase(m.ctx, msg.PhaseID, msg.Direction)
		return m.apply(res, err, "")
	case msgs.ReorderMsg:
		res, err := m.ctrl.Reorder(m.ctx, msg.Result)
		return m.apply(res, err, "")
	case msgs.ToggleLockMsg:
		locked, err := m.ctrl.ToggleLock(m.ctx)
		if err != nil {
			m.setStatus(fmt.Sprintf("Failed to change lock: %v", err), true)
			return nil
		}
		m.syncPlan()
		if locked {
			m.setStatus("Plan locked", false)
		} else {
			m.setStatus("Plan unlocked", false)
		}
		return nil
	case msgs.ResizeMsg:
		if err := m.ctrl.SetLayout(m.ctx, m.ctrl.Layout().LeftPanelWidth+msg.Delta); err != nil {
			m.setStatus(fmt.Sprintf("Failed to save layout: %v", err), true)
		}
		m.layout()
		return nil

	case msgs.ExportMsg:
		return m.export()
	case msgs.ExportDoneMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
		} else {
			m.setStatus("Exported progress to "+msg.Path, false)
		}
		return nil

	case msgs.GoToTimelineMsg:
		return m.buildTimeline()
	case timelineMsg:
		m.timeline.SetTimeline(msg.timeline)
		m.currentView = ViewTimeline
		return nil

	case msgs.GoToFilePickerMsg:
		m.picker = views.NewFilePickerModel(m.opts.ExportDir)
		m.picker.SetSize(m.width, m.height)
		m.currentView = ViewFilePicker
		return m.picker.Init()
	case msgs.FileSelectedMsg:
		return m.readFile(msg.Path)
	case msgs.FileReadMsg:
		return m.importFile(msg)

	case msgs.GoToPlanMsg:
		m.currentView = ViewPlan
		m.detailFocus = false
		m.plan.SetFocused(true)
		return nil
	}

	// Everything else belongs to whichever view is showing.
	var cmd tea.Cmd
	switch m.currentView {
	case ViewFilePicker:
		m.picker, cmd = m.picker.Update(msg)
	case ViewTimeline:
		m.timeline, cmd = m.timeline.Update(msg)
	default:
		var cmds []tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		cmds = append(cmds, cmd)
		m.plan, cmd = m.plan.Update(msg)
		cmds = append(cmds, cmd)
		cmd = tea.Batch(cmds...)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewFilePicker:
		m.picker, cmd = m.picker.Update(msg)
		return cmd
	case ViewTimeline:
		if msg.String() == "q" {
			return m.quit()
		}
		m.timeline, cmd = m.timeline.Update(msg)
		return cmd
	}

	if m.detailFocus {
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	}
	switch msg.String() {
	case "q":
		return m.quit()
	case "tab":
		if m.form.Selected() {
			return m.focusDetail()
		}
		return nil
	}
	m.plan, cmd = m.plan.Update(msg)
	return cmd
}

func (m *Model) focusDetail() tea.Cmd {
	m.detailFocus = true
	m.plan.SetFocused(false)
	return m.detail.Focus()
}

func (m *Model) selectTask(id string) tea.Cmd {
	if !m.ctrl.Select(id) {
		return nil
	}
	t, _ := m.ctrl.Plan().Task(id)
	var cmds []tea.Cmd
	if m.form.TaskID() != id {
		cmds = append(cmds, m.form.Select(t))
	}
	m.syncPlan()
	cmds = append(cmds, m.focusDetail())
	return tea.Batch(cmds...)
}

// toggleComplete goes through the form when the task is open there, so an
// autosave of the form cannot undo it.
func (m *Model) toggleComplete(id string) tea.Cmd {
	if m.form.Selected() && m.form.TaskID() == id && m.form.LoadState() != detail.Unloaded {
		status, completed := plan.TaskStatusCompleted, plan.FormatDate(m.opts.Now())
		if plan.TaskStatus(m.form.Value(detail.FieldStatus)) == plan.TaskStatusCompleted {
			status, completed = plan.TaskStatusPending, ""
		}
		tick, err := m.form.SetField(detail.FieldStatus, string(status))
		if err != nil {
			m.setStatus(err.Error(), true)
			return nil
		}
		if _, err := m.form.SetField(detail.FieldCompletedDate, completed); err != nil {
			m.setStatus(err.Error(), true)
			return tick
		}
		m.detail.Resync()
		return tea.Batch(tick, m.form.Blur())
	}

	res, err := m.ctrl.ToggleComplete(m.ctx, id)
	return m.apply(res, err, "")
}

// apply reports the outcome of a controller call and redraws on change.
func (m *Model) apply(res app.Result, err error, done string) tea.Cmd {
	switch {
	case errors.Is(err, app.ErrLocked):
		m.setStatus("Plan is locked. Press L to unlock.", true)
		return nil
	case err != nil:
		m.setStatus(err.Error(), true)
		return nil
	case !res.Changed:
		return nil
	}
	m.total = res.Progress
	m.syncPlan()
	if done != "" {
		m.setStatus(done, false)
	}
	return m.refresh()
}

// syncPlan pushes the controller's plan into the views. A form whose task
// disappeared is dropped without saving.
func (m *Model) syncPlan() {
	p := m.ctrl.Plan()
	if m.form.Selected() {
		if t, ok := p.Task(m.form.TaskID()); ok {
			m.form.Refresh(t)
		} else {
			m.form.Discard()
			m.detailFocus = false
			m.plan.SetFocused(true)
		}
	}
	m.plan.SetPlan(p, m.ctrl.Locked(), m.ctrl.Selected())
}

// saveForm writes pending form edits right away, for when the session is
// about to end.
func (m *Model) saveForm() {
	saved, err := m.form.SaveNow(m.ctx)
	for _, f := range saved {
		m.ctrl.RecordStateSaved(f.TaskID, f.State)
	}
	if err != nil {
		m.logger.Warn("failed to save pending edits", "error", err)
	}
}

func (m *Model) quit() tea.Cmd {
	m.saveForm()
	m.form.Discard()
	return tea.Quit
}

// refresh recomputes task state and progress off the update loop.
func (m *Model) refresh() tea.Cmd {
	m.version++
	return m.snapshot(m.version)
}

func (m Model) snapshot(version int) tea.Cmd {
	p := m.ctrl.Plan()
	store := m.ctrl.Store()
	logger := m.logger
	return func() tea.Msg {
		ctx := context.Background()
		agg := progress.New(store, logger)
		phases := make(map[string]progress.Summary, len(p.Phases))
		for _, ph := range p.Phases {
			phases[ph.ID] = agg.Phase(ctx, ph)
		}
		return msgs.SnapshotMsg{
			Version: version,
			States:  taskstore.Snapshot(ctx, store, p, logger),
			Total:   agg.Total(ctx, p),
			Phases:  phases,
		}
	}
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.opts.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msgs.PlanChangedMsg{}
	}
}

func (m Model) buildTimeline() tea.Cmd {
	p := m.ctrl.Plan()
	store := m.ctrl.Store()
	today := m.opts.Now()
	logger := m.logger
	return func() tea.Msg {
		return timelineMsg{timeline: schedule.Build(context.Background(), p, store, today, logger)}
	}
}

func (m Model) export() tea.Cmd {
	p := m.ctrl.Plan()
	store := m.ctrl.Store()
	now := m.opts.Now()
	fsys, dir, logger := m.opts.Fs, m.opts.ExportDir, m.logger
	return func() tea.Msg {
		e, err := transfer.ExportProgress(context.Background(), p, store, now, logger)
		if err != nil {
			return msgs.ExportDoneMsg{Err: err}
		}
		path, err := transfer.Write(fsys, dir, e)
		return msgs.ExportDoneMsg{Path: path, Err: err}
	}
}

func (m Model) readFile(path string) tea.Cmd {
	fsys := m.opts.Fs
	return func() tea.Msg {
		data, err := afero.ReadFile(fsys, path)
		return msgs.FileReadMsg{Path: path, Text: string(data), Err: err}
	}
}

func (m *Model) importFile(msg msgs.FileReadMsg) tea.Cmd {
	if msg.Err != nil {
		m.setStatus(fmt.Sprintf("Failed to read %s: %v", filepath.Base(msg.Path), msg.Err), true)
		return nil
	}
	res, err := m.ctrl.Import(m.ctx, msg.Text)
	if err != nil {
		m.setStatus(fmt.Sprintf("Import failed: %v", err), true)
		return nil
	}
	// Import replaced every task's state; the open form is stale.
	m.form.Discard()
	m.detailFocus = false
	m.plan.SetFocused(true)
	m.currentView = ViewPlan
	cmd := m.apply(res, nil, "")
	m.setStatus(fmt.Sprintf("Imported %s (%d tasks)", filepath.Base(msg.Path), m.ctrl.Plan().TaskCount()), false)
	return cmd
}

func (m *Model) setStatus(text string, isError bool) {
	m.statusBar = components.StatusBar{Message: text, IsError: isError}
}

// panelWidths splits the screen between the tree and the form.
func (m Model) panelWidths() (left, right int) {
	left = max(m.ctrl.Layout().LeftPanelWidth, app.MinLeftPanelWidth)
	left = min(left, max(m.width-minDetailWidth, app.MinLeftPanelWidth))
	return left, max(m.width-left, 0)
}

func (m *Model) layout() {
	bodyHeight := max(m.height-headerHeight-1, 0)
	left, right := m.panelWidths()
	// Borders take two columns and rows; padding two more columns.
	m.plan.SetSize(max(left-4, 0), max(bodyHeight-2, 0))
	m.detail.SetSize(max(right-4, 0), max(bodyHeight-2, 0))
	m.timeline.SetSize(m.width, bodyHeight)
	m.picker.SetSize(m.width, m.height)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.width < MinTerminalWidth || m.height < MinTerminalHeight {
		return m.renderTerminalTooSmall()
	}
	if m.currentView == ViewFilePicker {
		return m.picker.View()
	}

	header := m.header()
	var body string
	var hints []string
	bodyHeight := max(m.height-headerHeight-1, 0)

	if m.currentView == ViewTimeline {
		body = m.timeline.View()
		hints = m.timeline.Hints()
	} else {
		left, right := m.panelWidths()
		leftBox, rightBox := styles.FocusedBoxStyle, styles.BoxStyle
		hints = m.plan.Hints()
		if m.detailFocus {
			leftBox, rightBox = styles.BoxStyle, styles.FocusedBoxStyle
			hints = m.detail.Hints()
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			leftBox.Width(max(left-2, 0)).Height(max(bodyHeight-2, 0)).MaxHeight(bodyHeight).Render(m.plan.View()),
			rightBox.Width(max(right-2, 0)).Height(max(bodyHeight-2, 0)).MaxHeight(bodyHeight).Render(m.detail.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body),
		m.statusBar.Render(m.width, hints),
	)
}

func (m Model) header() string {
	title := styles.TitleStyle.UnsetMarginBottom().Render(m.ctrl.Plan().Title)
	bar := components.NewProgress(m.total, 20).View()
	line := title + "  " + bar
	if m.ctrl.Locked() {
		line += "  " + styles.LockedStyle.Render("LOCKED")
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line) + "\n"
}

func (m Model) renderTerminalTooSmall() string {
	msg := lipgloss.JoinVertical(lipgloss.Center,
		styles.ErrorStyle.Render("Terminal too small"),
		"",
		fmt.Sprintf("Minimum: %dx%d", MinTerminalWidth, MinTerminalHeight),
		fmt.Sprintf("Current: %dx%d", m.width, m.height),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
}
