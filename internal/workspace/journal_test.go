package workspace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJournal_Log(t *testing.T) {
	tmpDir := t.TempDir()

	journal := NewJournal(tmpDir)
	err := journal.Log(EventTaskAdded, map[string]any{
		"task_id": "phase1-task6",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, journalFileName))
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if event.Event != EventTaskAdded {
		t.Errorf("event mismatch: got %s, want %s", event.Event, EventTaskAdded)
	}
	if event.Data["task_id"] != "phase1-task6" {
		t.Errorf("data mismatch: got %v, want phase1-task6", event.Data["task_id"])
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

func TestJournal_MultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()
	journal := NewJournal(tmpDir)

	events := []string{EventPhaseAdded, EventTaskMoved, EventPlanLocked}
	for _, evt := range events {
		if err := journal.Log(evt, nil); err != nil {
			t.Fatalf("unexpected error logging %s: %v", evt, err)
		}
	}

	f, err := os.Open(journal.Path())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Errorf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != len(events) {
		t.Errorf("expected %d lines, got %d", len(events), lines)
	}
}

func TestJournal_Read(t *testing.T) {
	tmpDir := t.TempDir()
	journal := NewJournal(tmpDir)

	events, err := journal.Read(10)
	if err != nil || events != nil {
		t.Fatalf("missing journal: got %v, %v; want nil, nil", events, err)
	}

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	journal.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	for _, evt := range []string{"a", "b", "c", "d"} {
		journal.Log(evt, nil)
	}
	// A torn line is skipped.
	f, _ := os.OpenFile(journal.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	f.WriteString("{\"timestamp\":\n")
	f.Close()

	events, err = journal.Read(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Event != "c" || events[1].Event != "d" {
		t.Errorf("got %+v, want the last two events oldest first", events)
	}

	all, _ := journal.Read(0)
	if len(all) != 4 {
		t.Errorf("expected 4 events, got %d", len(all))
	}
}
