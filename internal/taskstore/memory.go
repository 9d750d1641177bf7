package taskstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/pablasso/plannah/internal/plan"
)

// Memory is an in-memory Store for tests. Each operation can be made to fail.
type Memory struct {
	mu     sync.Mutex
	states map[string]plan.TaskState

	LoadErr   error
	SaveErr   error
	DeleteErr error

	Saves   []string
	Deletes []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]plan.TaskState)}
}

func (m *Memory) SaveState(ctx context.Context, taskID string, state plan.TaskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.states[taskID] = state.Clone()
	m.Saves = append(m.Saves, taskID)
	return nil
}

func (m *Memory) LoadState(ctx context.Context, taskID string) (*plan.TaskState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	st, ok := m.states[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	st = st.Clone()
	return &st, nil
}

func (m *Memory) DeleteState(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.states, taskID)
	m.Deletes = append(m.Deletes, taskID)
	return nil
}

func (m *Memory) HasState(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return false, m.LoadErr
	}
	_, ok := m.states[taskID]
	return ok, nil
}

// StoredIDs returns the ids with state, sorted.
func (m *Memory) StoredIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return slices.Sorted(maps.Keys(m.states)), nil
}

// Len returns how many tasks have state.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
