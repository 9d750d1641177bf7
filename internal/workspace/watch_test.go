package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/pablasso/plannah/internal/kv"
	"github.com/pablasso/plannah/internal/plan"
)

func TestWatchPlan_FileBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	backend, err := kv.NewFSBackend(afero.NewOsFs(), dir)
	if err != nil {
		t.Fatal(err)
	}
	ws := New(backend, dir, nil)

	changes, err := ws.WatchPlan(ctx, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WatchPlan: %v", err)
	}

	// Unrelated keys do not notify.
	backend.Set(ctx, "task-state-a", "{}")
	select {
	case <-changes:
		t.Fatal("unexpected notification for a task state write")
	case <-time.After(150 * time.Millisecond):
	}

	other := New(backend, dir, nil)
	for i := 0; i < 3; i++ {
		if err := other.SavePlan(ctx, plan.Default()); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification after the plan changed")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatchPlan_NotWatchable(t *testing.T) {
	sqlb, err := kv.NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer sqlb.Close()

	ws := New(sqlb, t.TempDir(), nil)
	if _, err := ws.WatchPlan(context.Background(), time.Millisecond); !errors.Is(err, ErrNotWatchable) {
		t.Errorf("got %v, want ErrNotWatchable", err)
	}
	ws = New(kv.NewMemoryBackend(), t.TempDir(), nil)
	if _, err := ws.WatchPlan(context.Background(), time.Millisecond); !errors.Is(err, ErrNotWatchable) {
		t.Errorf("got %v, want ErrNotWatchable", err)
	}
}
