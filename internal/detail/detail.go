// Package detail drives the per-task form: loading a task's saved state,
// tracking edits, and saving them on blur, on a timer, or right after an
// attachment change.
//
// The controller never blocks. Every store call is returned as a tea.Cmd
// and its result comes back through Update. Each result carries the
// selection generation it was issued under and is dropped when the user has
// since selected something else.
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

// Defaults for Options.
const (
	DefaultAutosaveInterval = 5 * time.Second
	DefaultAttachmentDelay  = 300 * time.Millisecond
)

// LoadState is where the form is in its load lifecycle.
type LoadState int

const (
	Unloaded LoadState = iota
	Loaded
	LoadedDefault
)

func (s LoadState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case LoadedDefault:
		return "default"
	}
	return "unloaded"
}

// Field names an editable form field.
type Field string

const (
	FieldStatus          Field = "status"
	FieldAssignee        Field = "assignee"
	FieldScheduleDate    Field = "scheduleDate"
	FieldScheduleEndDate Field = "scheduleEndDate"
	FieldCompletedDate   Field = "completedDate"
	FieldSOPDocument     Field = "sopDocument"
	FieldNotes           Field = "notes"
)

// Fields lists the editable fields in form order.
var Fields = []Field{
	FieldStatus, FieldAssignee, FieldScheduleDate, FieldScheduleEndDate,
	FieldCompletedDate, FieldSOPDocument, FieldNotes,
}

// ErrNotLoaded is returned for edits before the task's state has loaded.
var ErrNotLoaded = errors.New("task state is still loading")

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	AutosaveInterval time.Duration
	AttachmentDelay  time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
}

// writer serializes store writes and drops a write once a newer one for
// the same task has landed.
type writer struct {
	store   taskstore.Store
	mu      sync.Mutex
	written map[string]uint64
}

func (w *writer) save(ctx context.Context, taskID string, seq uint64, st plan.TaskState) (stale bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq <= w.written[taskID] {
		return true, nil
	}
	if err := w.store.SaveState(ctx, taskID, st); err != nil {
		return false, err
	}
	w.written[taskID] = seq
	return false, nil
}

// pendingSave is a form snapshot bound for the store.
type pendingSave struct {
	gen   uint64
	edits uint64
	seq   uint64
	state plan.TaskState
}

// Controller is the form state for the selected task.
type Controller struct {
	store taskstore.Store
	w     *writer
	opts  Options

	task      plan.Task
	selected  bool
	loadState LoadState
	form      plan.TaskState
	dirty     bool

	// gen identifies the current selection.
	gen uint64
	// edits counts changes so a save can tell whether newer edits exist.
	edits uint64
	// timerSeq identifies the armed autosave timer; bumping it cancels.
	timerSeq   uint64
	timerArmed bool
	attachSeq  uint64

	// seq orders snapshots across all tasks.
	seq uint64
	// inFlight holds the tasks with a store write running. At most one
	// write per task runs at a time.
	inFlight map[string]bool
	// held are flushes of earlier selections waiting on inFlight.
	held map[string]pendingSave
	// latest is the newest snapshot per task not yet confirmed written.
	latest map[string]pendingSave
	// queued marks a save of the current selection waiting on inFlight.
	queued bool

	lastSaved time.Time
	lastErr   error
}

// New returns a Controller with nothing selected.
func New(store taskstore.Store, opts Options) *Controller {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.AttachmentDelay <= 0 {
		opts.AttachmentDelay = DefaultAttachmentDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		store:    store,
		w:        &writer{store: store, written: make(map[string]uint64)},
		opts:     opts,
		inFlight: make(map[string]bool),
		held:     make(map[string]pendingSave),
		latest:   make(map[string]pendingSave),
	}
}

// Messages returned by the controller's commands.
type (
	loadDoneMsg struct {
		gen   uint64
		state *plan.TaskState
		err   error
	}
	saveDoneMsg struct {
		gen    uint64
		taskID string
		edits  uint64
		seq    uint64
		state  plan.TaskState
		stale  bool
		err    error
	}
	autosaveTickMsg struct {
		gen uint64
		seq uint64
	}
	attachmentSaveMsg struct {
		gen uint64
		seq uint64
	}
)

// SavedMsg reports a completed save of the current selection.
type SavedMsg struct {
	TaskID string
	State  plan.TaskState
}

// FlushedMsg reports that edits of a previously selected task were saved.
type FlushedMsg struct {
	TaskID string
	State  plan.TaskState
}

// SaveFailedMsg reports a failed save. The form stays dirty.
type SaveFailedMsg struct {
	TaskID string
	Err    error
}

// Task returns the selected task with the form applied over it.
func (c *Controller) Task() plan.Task {
	return plan.Overlay(c.task, &c.form)
}

// TaskID returns the selected task's id, or "".
func (c *Controller) TaskID() string {
	if !c.selected {
		return ""
	}
	return c.task.ID
}

// Selected reports whether a task is selected.
func (c *Controller) Selected() bool { return c.selected }

// LoadState returns the load lifecycle state.
func (c *Controller) LoadState() LoadState { return c.loadState }

// Form returns a copy of the form snapshot.
func (c *Controller) Form() plan.TaskState { return c.form.Clone() }

// Dirty reports unsaved edits.
func (c *Controller) Dirty() bool { return c.dirty }

// Saving reports whether a save of the selected task is in flight.
func (c *Controller) Saving() bool { return c.selected && c.inFlight[c.task.ID] }

// LastSaved returns when the last save completed, or the zero time.
func (c *Controller) LastSaved() time.Time { return c.lastSaved }

// Err returns the error of the last failed save, cleared by the next success.
func (c *Controller) Err() error { return c.lastErr }

// Generation returns the selection generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Value returns the form value of f.
func (c *Controller) Value(f Field) string {
	switch f {
	case FieldStatus:
		return string(c.form.Status)
	case FieldAssignee:
		return c.form.Assignee
	case FieldScheduleDate:
		return c.form.ScheduleDate
	case FieldScheduleEndDate:
		return c.form.ScheduleEndDate
	case FieldCompletedDate:
		return c.form.CompletedDate
	case FieldSOPDocument:
		return c.form.SOPDocument
	case FieldNotes:
		return c.form.Notes
	}
	return ""
}

// Select makes t the current task and starts loading its state. Unsaved
// edits of the previous task are flushed to that task first. A task whose
// snapshot is still on its way to the store starts from that snapshot.
func (c *Controller) Select(t plan.Task) tea.Cmd {
	flush := c.flush()
	c.reset()
	c.task = t.Clone()
	c.selected = true
	if p, ok := c.latest[t.ID]; ok {
		st := p.state.Clone()
		c.form = plan.StateFromTask(plan.Overlay(t, &st))
		c.loadState = Loaded
		return flush
	}
	c.form = plan.StateFromTask(t)
	return tea.Batch(flush, c.loadCmd(c.gen, t.ID))
}

// Deselect clears the selection, flushing unsaved edits.
func (c *Controller) Deselect() tea.Cmd {
	flush := c.flush()
	c.reset()
	c.task = plan.Task{}
	c.form = plan.TaskState{}
	return flush
}

// Discard clears the selection and drops unsaved edits, for a task that no
// longer exists.
func (c *Controller) Discard() {
	if c.selected {
		delete(c.held, c.task.ID)
		delete(c.latest, c.task.ID)
	}
	c.reset()
	c.task = plan.Task{}
	c.form = plan.TaskState{}
}

// Refresh replaces the static task definition, for example after the task
// was edited structurally, without touching the form.
func (c *Controller) Refresh(t plan.Task) {
	if c.selected && t.ID == c.task.ID {
		c.task = t.Clone()
	}
}

func (c *Controller) reset() {
	c.gen++
	c.timerSeq++
	c.timerArmed = false
	c.attachSeq++
	c.selected = false
	c.loadState = Unloaded
	c.dirty = false
	c.queued = false
	c.lastSaved = time.Time{}
	c.lastErr = nil
}

// flush returns a save of the current form when it is dirty. The result is
// tagged with the outgoing generation, so only the write itself matters.
// While the task has a write in flight the flush is held until it lands.
func (c *Controller) flush() tea.Cmd {
	if !c.selected || !c.dirty {
		return nil
	}
	p := c.snapshot()
	if c.inFlight[c.task.ID] {
		c.held[c.task.ID] = p
		c.latest[c.task.ID] = p
		return nil
	}
	return c.issue(c.task.ID, p)
}

func (c *Controller) snapshot() pendingSave {
	st := c.form.Clone()
	st.UpdatedAt = c.opts.Now()
	c.seq++
	return pendingSave{gen: c.gen, edits: c.edits, seq: c.seq, state: st}
}

// SetField updates a field in memory and marks the form dirty.
func (c *Controller) SetField(f Field, value string) (tea.Cmd, error) {
	if !c.selected || c.loadState == Unloaded {
		return nil, ErrNotLoaded
	}
	switch f {
	case FieldStatus:
		st := plan.TaskStatus(value)
		if !st.Valid() {
			return nil, fmt.Errorf("invalid status %q", value)
		}
		c.form.Status = st
	case FieldAssignee:
		c.form.Assignee = value
	case FieldScheduleDate:
		c.form.ScheduleDate = value
	case FieldScheduleEndDate:
		c.form.ScheduleEndDate = value
	case FieldCompletedDate:
		c.form.CompletedDate = value
	case FieldSOPDocument:
		c.form.SOPDocument = value
	case FieldNotes:
		c.form.Notes = value
	default:
		return nil, fmt.Errorf("unknown field %q", f)
	}
	c.touch()
	return c.armTimer(), nil
}

// CycleStatus advances the status to the next one.
func (c *Controller) CycleStatus() (tea.Cmd, error) {
	return c.SetField(FieldStatus, string(c.form.Status.Next()))
}

// AddFile records an attachment name and saves shortly after.
func (c *Controller) AddFile(name string) (tea.Cmd, error) {
	if !c.selected || c.loadState == Unloaded {
		return nil, ErrNotLoaded
	}
	if name == "" {
		return nil, errors.New("file name is required")
	}
	c.form.Files = append(c.form.Files, name)
	c.touch()
	return c.attachmentSave(), nil
}

// RemoveFile drops the attachment at index i and saves shortly after.
func (c *Controller) RemoveFile(i int) (tea.Cmd, error) {
	if !c.selected || c.loadState == Unloaded {
		return nil, ErrNotLoaded
	}
	if i < 0 || i >= len(c.form.Files) {
		return nil, fmt.Errorf("no attachment at %d", i)
	}
	c.form.Files = slices.Delete(slices.Clone(c.form.Files), i, i+1)
	c.touch()
	return c.attachmentSave(), nil
}

// Blur saves pending edits, as when focus leaves a field.
func (c *Controller) Blur() tea.Cmd {
	if !c.selected || !c.dirty {
		return nil
	}
	return c.requestSave()
}

func (c *Controller) touch() {
	c.dirty = true
	c.edits++
}

func (c *Controller) armTimer() tea.Cmd {
	if c.timerArmed {
		return nil
	}
	c.timerArmed = true
	gen, seq := c.gen, c.timerSeq
	return tea.Tick(c.opts.AutosaveInterval, func(time.Time) tea.Msg {
		return autosaveTickMsg{gen: gen, seq: seq}
	})
}

func (c *Controller) attachmentSave() tea.Cmd {
	c.attachSeq++
	gen, seq := c.gen, c.attachSeq
	return tea.Tick(c.opts.AttachmentDelay, func(time.Time) tea.Msg {
		return attachmentSaveMsg{gen: gen, seq: seq}
	})
}

// requestSave issues a save of the current snapshot, or queues one when a
// save is already in flight so two writes for the task never overlap.
func (c *Controller) requestSave() tea.Cmd {
	if c.inFlight[c.task.ID] {
		c.queued = true
		return nil
	}
	return c.issue(c.task.ID, c.snapshot())
}

// next issues the save that waited on taskID's previous write. A held
// flush goes first since it predates anything the current selection queued.
func (c *Controller) next(taskID string) tea.Cmd {
	if p, ok := c.held[taskID]; ok {
		delete(c.held, taskID)
		return c.issue(taskID, p)
	}
	if c.queued && c.selected && c.task.ID == taskID {
		c.queued = false
		if c.dirty {
			return c.requestSave()
		}
	}
	return nil
}

// SaveNow writes every unsaved snapshot right away: held flushes of earlier
// selections and the current form when dirty. It is for when the session is
// about to end and no more results will be delivered. Older writes still in
// flight are dropped when they land.
func (c *Controller) SaveNow(ctx context.Context) ([]FlushedMsg, error) {
	pending := make(map[string]pendingSave, len(c.held)+1)
	maps.Copy(pending, c.held)
	if c.selected && c.dirty {
		pending[c.task.ID] = c.snapshot()
	}

	var saved []FlushedMsg
	var errs []error
	for _, id := range slices.Sorted(maps.Keys(pending)) {
		p := pending[id]
		stale, err := c.w.save(ctx, id, p.seq, p.state)
		if err != nil {
			c.opts.Logger.Warn("failed to save task state", "task_id", id, "error", err)
			errs = append(errs, fmt.Errorf("task %s: %w", id, err))
			continue
		}
		delete(c.held, id)
		if c.latest[id].seq <= p.seq {
			delete(c.latest, id)
		}
		if id == c.task.ID && c.selected && p.edits == c.edits {
			c.dirty = false
		}
		if !stale {
			saved = append(saved, FlushedMsg{TaskID: id, State: p.state})
		}
	}
	return saved, errors.Join(errs...)
}

func (c *Controller) loadCmd(gen uint64, taskID string) tea.Cmd {
	store := c.store
	return func() tea.Msg {
		st, err := store.LoadState(context.Background(), taskID)
		return loadDoneMsg{gen: gen, state: st, err: err}
	}
}

// issue marks taskID in flight and returns the write of p.
func (c *Controller) issue(taskID string, p pendingSave) tea.Cmd {
	c.inFlight[taskID] = true
	c.latest[taskID] = p
	w := c.w
	return func() tea.Msg {
		stale, err := w.save(context.Background(), taskID, p.seq, p.state)
		return saveDoneMsg{gen: p.gen, taskID: taskID, edits: p.edits, seq: p.seq, state: p.state, stale: stale, err: err}
	}
}

// Update applies the result of an earlier command. Messages that belong to
// another component are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadDoneMsg:
		if msg.gen != c.gen {
			return nil
		}
		c.handleLoad(msg)
	case saveDoneMsg:
		delete(c.inFlight, msg.taskID)
		if c.latest[msg.taskID].seq == msg.seq {
			delete(c.latest, msg.taskID)
		}
		if msg.gen != c.gen {
			return c.handleFlush(msg)
		}
		return c.handleSave(msg)
	case autosaveTickMsg:
		if msg.gen != c.gen || msg.seq != c.timerSeq {
			return nil
		}
		c.timerArmed = false
		if c.dirty {
			return c.requestSave()
		}
	case attachmentSaveMsg:
		if msg.gen != c.gen || msg.seq != c.attachSeq {
			return nil
		}
		if c.dirty {
			return c.requestSave()
		}
	}
	return nil
}

func (c *Controller) handleLoad(msg loadDoneMsg) {
	switch {
	case msg.err == nil:
		c.form = plan.StateFromTask(plan.Overlay(c.task, msg.state))
		c.loadState = Loaded
	case errors.Is(msg.err, taskstore.ErrNotFound):
		c.loadState = LoadedDefault
	default:
		c.opts.Logger.Warn("failed to load task state", "task_id", c.task.ID, "error", msg.err)
		c.loadState = LoadedDefault
	}
}

// handleFlush reports a save issued for an earlier selection. It never
// touches the current form.
func (c *Controller) handleFlush(msg saveDoneMsg) tea.Cmd {
	next := c.next(msg.taskID)
	switch {
	case msg.err != nil:
		c.opts.Logger.Warn("failed to flush task state", "task_id", msg.taskID, "error", msg.err)
		return tea.Batch(func() tea.Msg { return SaveFailedMsg{TaskID: msg.taskID, Err: msg.err} }, next)
	case msg.stale:
		return next
	}
	flushed := FlushedMsg{TaskID: msg.taskID, State: msg.state}
	return tea.Batch(func() tea.Msg { return flushed }, next)
}

func (c *Controller) handleSave(msg saveDoneMsg) tea.Cmd {
	var cmds []tea.Cmd
	switch {
	case msg.err != nil:
		c.lastErr = msg.err
		c.opts.Logger.Warn("failed to save task state", "task_id", msg.taskID, "error", msg.err)
		cmds = append(cmds, func() tea.Msg { return SaveFailedMsg{TaskID: msg.taskID, Err: msg.err} })
	case msg.stale:
		// A newer snapshot already landed.
	default:
		c.lastErr = nil
		c.lastSaved = msg.state.UpdatedAt
		if msg.edits == c.edits {
			c.dirty = false
		}
		saved := SavedMsg{TaskID: msg.taskID, State: msg.state}
		cmds = append(cmds, func() tea.Msg { return saved })
	}

	cmds = append(cmds, c.next(msg.taskID))
	if c.dirty && !c.inFlight[c.task.ID] {
		c.timerSeq++
		c.timerArmed = false
		cmds = append(cmds, c.armTimer())
	}
	return tea.Batch(cmds...)
}
