package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pablasso/plannah/internal/plan"
)

// Lookup loads a task's state for read-only use. Every failure reads as "no
// state"; anything other than ErrNotFound is logged.
func Lookup(ctx context.Context, store Store, taskID string, logger *slog.Logger) (*plan.TaskState, bool) {
	st, err := store.LoadState(ctx, taskID)
	if err == nil {
		return st, true
	}
	if !errors.Is(err, ErrNotFound) {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to load task state", "task_id", taskID, "error", err)
	}
	return nil, false
}

// Purge deletes the state of every listed task. It attempts all of them and
// returns the joined failures.
func Purge(ctx context.Context, store Store, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := store.DeleteState(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns the saved state of every task in p that has one.
func Snapshot(ctx context.Context, store Store, p *plan.Plan, logger *slog.Logger) map[string]plan.TaskState {
	out := make(map[string]plan.TaskState)
	for _, id := range p.TaskIDs() {
		if st, ok := Lookup(ctx, store, id, logger); ok {
			out[id] = *st
		}
	}
	return out
}
