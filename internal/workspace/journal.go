package workspace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const journalFileName = "history.log"

// Journal event types.
const (
	EventPlanImported   = "plan_imported"
	EventPlanLocked     = "plan_locked"
	EventPlanUnlocked   = "plan_unlocked"
	EventPlanReset      = "plan_reset"
	EventPhaseAdded     = "phase_added"
	EventPhaseUpdated   = "phase_updated"
	EventPhaseDeleted   = "phase_deleted"
	EventPhaseMoved     = "phase_moved"
	EventTaskAdded      = "task_added"
	EventTaskUpdated    = "task_updated"
	EventTaskDeleted    = "task_deleted"
	EventTaskMoved      = "task_moved"
	EventTaskStateSaved = "task_state_saved"
	EventStatePruned    = "state_pruned"
)

// Event is one journal entry.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// Journal appends activity events to a JSON Lines file.
type Journal struct {
	path string
	now  func() time.Time
}

// NewJournal returns the journal of the workspace in dataDir.
func NewJournal(dataDir string) *Journal {
	return &Journal{path: filepath.Join(dataDir, journalFileName), now: time.Now}
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Log appends one event.
func (j *Journal) Log(event string, data map[string]any) error {
	line, err := json.Marshal(Event{Timestamp: j.now(), Event: event, Data: data})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(line)
	return err
}

// Read returns up to limit of the most recent events, oldest first. A limit
// of zero or less returns all of them. Lines that do not decode are skipped.
func (j *Journal) Read(limit int) ([]Event, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
