// Package progress computes completion figures for phases and plans.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

// Summary is a completed/total pair with its rounded percentage.
type Summary struct {
	Completed  int
	Total      int
	Percentage int
}

// Aggregator reads task state to compute progress. Nothing is cached.
type Aggregator struct {
	store  taskstore.Store
	logger *slog.Logger
}

// New returns an Aggregator over store. A nil logger uses slog.Default().
func New(store taskstore.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, logger: logger}
}

// Phase returns progress for one phase. A task counts as completed when its
// saved status is completed, or, lacking saved state, its own status is.
func (a *Aggregator) Phase(ctx context.Context, ph plan.Phase) Summary {
	var s Summary
	for _, t := range ph.Tasks {
		s.Total++
		if a.status(ctx, t) == plan.TaskStatusCompleted {
			s.Completed++
		}
	}
	s.Percentage = percent(s.Completed, s.Total)
	return s
}

// Total returns progress across every phase of p.
func (a *Aggregator) Total(ctx context.Context, p *plan.Plan) Summary {
	var s Summary
	for _, ph := range p.Phases {
		ps := a.Phase(ctx, ph)
		s.Completed += ps.Completed
		s.Total += ps.Total
	}
	s.Percentage = percent(s.Completed, s.Total)
	return s
}

// Breakdown counts tasks of p per effective status.
func (a *Aggregator) Breakdown(ctx context.Context, p *plan.Plan) map[plan.TaskStatus]int {
	counts := make(map[plan.TaskStatus]int, len(plan.Statuses))
	for _, st := range plan.Statuses {
		counts[st] = 0
	}
	for _, ph := range p.Phases {
		for _, t := range ph.Tasks {
			counts[a.status(ctx, t)]++
		}
	}
	return counts
}

// status returns the task's effective status. A failed load counts as not
// completed rather than falling back to the task's own status.
func (a *Aggregator) status(ctx context.Context, t plan.Task) plan.TaskStatus {
	st, err := a.store.LoadState(ctx, t.ID)
	switch {
	case err == nil:
		return plan.EffectiveStatus(t, st)
	case errors.Is(err, taskstore.ErrNotFound):
		return t.Status.Normalized()
	default:
		a.logger.Warn("failed to load task state", "task_id", t.ID, "error", err)
		return plan.TaskStatusPending
	}
}

func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
