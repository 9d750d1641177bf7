// Package workspace persists the plan document and its preferences in a
// key-value store, and owns the files kept beside it.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pablasso/plannah/internal/kv"
	"github.com/pablasso/plannah/internal/plan"
)

// Storage keys.
const (
	KeyPlan   = "manufacturing-plan"
	KeyLocked = "plan-locked"
	KeyLayout = "ui-layout"
)

// DefaultLeftPanelWidth is the layout used before any preference is saved.
const DefaultLeftPanelWidth = 48

// Layout is the persisted UI layout preference.
type Layout struct {
	LeftPanelWidth int `json:"leftPanelWidth"`
}

// Workspace reads and writes the plan document.
type Workspace struct {
	backend kv.Backend
	dataDir string
	logger  *slog.Logger
}

// New returns a Workspace over backend. dataDir holds the journal and the
// session lock. A nil logger uses slog.Default().
func New(backend kv.Backend, dataDir string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{backend: backend, dataDir: dataDir, logger: logger}
}

// Backend returns the underlying key-value store.
func (w *Workspace) Backend() kv.Backend { return w.backend }

// DataDir returns the workspace directory.
func (w *Workspace) DataDir() string { return w.dataDir }

// Journal returns the workspace activity journal.
func (w *Workspace) Journal() *Journal { return NewJournal(w.dataDir) }

// SessionLock returns the workspace session lock.
func (w *Workspace) SessionLock() *SessionLock { return NewSessionLock(w.dataDir) }

// HasPlan reports whether a plan was ever saved.
func (w *Workspace) HasPlan(ctx context.Context) (bool, error) {
	return w.backend.Has(ctx, KeyPlan)
}

// LoadPlan returns the stored plan, or the built-in default when none is
// stored. A stored plan that fails to decode is logged and replaced by the
// default; storage errors are returned.
func (w *Workspace) LoadPlan(ctx context.Context) (*plan.Plan, error) {
	raw, ok, err := w.backend.Get(ctx, KeyPlan)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	if !ok {
		return plan.Default(), nil
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		w.logger.Warn("stored plan is corrupt, using default", "error", err)
		return plan.Default(), nil
	}
	p.Normalize()
	return &p, nil
}

// SavePlan stores p, replacing any previous plan.
func (w *Workspace) SavePlan(ctx context.Context, p *plan.Plan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := w.backend.Set(ctx, KeyPlan, string(data)); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// LoadLocked returns the saved lock flag, false when unset or unreadable.
func (w *Workspace) LoadLocked(ctx context.Context) bool {
	raw, ok, err := w.backend.Get(ctx, KeyLocked)
	if err != nil {
		w.logger.Warn("failed to read lock flag", "error", err)
		return false
	}
	if !ok {
		return false
	}
	locked, err := strconv.ParseBool(raw)
	if err != nil {
		w.logger.Warn("invalid lock flag", "value", raw)
		return false
	}
	return locked
}

// SaveLocked stores the lock flag.
func (w *Workspace) SaveLocked(ctx context.Context, locked bool) error {
	if err := w.backend.Set(ctx, KeyLocked, strconv.FormatBool(locked)); err != nil {
		return fmt.Errorf("failed to save lock flag: %w", err)
	}
	return nil
}

// LoadLayout returns the saved layout, or the default layout.
func (w *Workspace) LoadLayout(ctx context.Context) Layout {
	def := Layout{LeftPanelWidth: DefaultLeftPanelWidth}
	raw, ok, err := w.backend.Get(ctx, KeyLayout)
	if err != nil {
		w.logger.Warn("failed to read layout", "error", err)
		return def
	}
	if !ok {
		return def
	}
	var l Layout
	if err := json.Unmarshal([]byte(raw), &l); err != nil || l.LeftPanelWidth <= 0 {
		w.logger.Warn("invalid layout, using default", "value", raw)
		return def
	}
	return l
}

// SaveLayout stores the layout preference.
func (w *Workspace) SaveLayout(ctx context.Context, l Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	if err := w.backend.Set(ctx, KeyLayout, string(data)); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

// Reset removes the plan, lock flag and layout, leaving task state alone.
func (w *Workspace) Reset(ctx context.Context) error {
	for _, k := range []string{KeyPlan, KeyLocked, KeyLayout} {
		if err := w.backend.Remove(ctx, k); err != nil {
			return fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}
	return nil
}
