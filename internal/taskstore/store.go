// Package taskstore persists the runtime state of individual tasks.
package taskstore

import (
	"context"
	"errors"

	"github.com/pablasso/plannah/internal/plan"
)

// KeyPrefix namespaces task state entries in the key-value store.
const KeyPrefix = "task-state-"

var (
	// ErrNotFound means no state was ever saved for the task.
	ErrNotFound = errors.New("task state not found")
	// ErrCorrupt means a stored payload could not be decoded.
	ErrCorrupt = errors.New("task state corrupt")
)

// Store persists one TaskState per task id. Every method may block; callers
// on the UI loop run them as commands. Saves overwrite, never merge.
type Store interface {
	SaveState(ctx context.Context, taskID string, state plan.TaskState) error
	LoadState(ctx context.Context, taskID string) (*plan.TaskState, error)
	DeleteState(ctx context.Context, taskID string) error
	HasState(ctx context.Context, taskID string) (bool, error)
}

// Lister is a Store that can enumerate the tasks it holds state for.
type Lister interface {
	StoredIDs(ctx context.Context) ([]string, error)
}

// Key returns the storage key for a task's state.
func Key(taskID string) string {
	return KeyPrefix + taskID
}
