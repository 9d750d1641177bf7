package taskstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pablasso/plannah/internal/kv"
	"github.com/pablasso/plannah/internal/plan"
)

// envelope is the stored form of a task state.
type envelope struct {
	TaskID    string         `json:"taskId"`
	State     plan.TaskState `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// LocalStore keeps task state in a kv.Backend.
type LocalStore struct {
	backend kv.Backend
	now     func() time.Time
}

// NewLocalStore returns a Store over backend.
func NewLocalStore(backend kv.Backend) *LocalStore {
	return &LocalStore{backend: backend, now: time.Now}
}

func (s *LocalStore) SaveState(ctx context.Context, taskID string, state plan.TaskState) error {
	data, err := json.Marshal(envelope{
		TaskID:    taskID,
		State:     state,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", taskID, err)
	}
	if err := s.backend.Set(ctx, Key(taskID), string(data)); err != nil {
		return fmt.Errorf("failed to save state for %s: %w", taskID, err)
	}
	return nil
}

func (s *LocalStore) LoadState(ctx context.Context, taskID string) (*plan.TaskState, error) {
	raw, ok, err := s.backend.Get(ctx, Key(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", taskID, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, taskID, err)
	}
	return &env.State, nil
}

func (s *LocalStore) DeleteState(ctx context.Context, taskID string) error {
	if err := s.backend.Remove(ctx, Key(taskID)); err != nil {
		return fmt.Errorf("failed to delete state for %s: %w", taskID, err)
	}
	return nil
}

func (s *LocalStore) HasState(ctx context.Context, taskID string) (bool, error) {
	ok, err := s.backend.Has(ctx, Key(taskID))
	if err != nil {
		return false, fmt.Errorf("failed to check state for %s: %w", taskID, err)
	}
	return ok, nil
}

// StoredIDs returns the id of every task that has saved state, including
// tasks no longer in the plan.
func (s *LocalStore) StoredIDs(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list task states: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(KeyPrefix):]
	}
	return ids, nil
}
