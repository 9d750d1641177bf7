// Package schedule lays scheduled tasks out on a day-based timeline.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

// padDays is added before the earliest and after the latest scheduled date.
const padDays = 7

// Row is one scheduled task.
type Row struct {
	TaskID   string
	Title    string
	Status   plan.TaskStatus
	Assignee string
	Start    time.Time
	End      time.Time
	// Offset is the number of days from the timeline start to Start.
	Offset int
	// Span is the number of days the task covers, end date included.
	Span int
}

// Group holds the scheduled tasks of one phase.
type Group struct {
	PhaseID    string
	PhaseTitle string
	Rows       []Row
}

// Timeline covers Start through End inclusive.
type Timeline struct {
	Start  time.Time
	End    time.Time
	Days   int
	Groups []Group
}

// Empty reports whether no task is scheduled.
func (tl Timeline) Empty() bool {
	return len(tl.Groups) == 0
}

// Build collects every task with both a start and an end date. Saved state
// dates take precedence over the task's own when set. Tasks with
// unparseable dates or an end before the start are skipped.
func Build(ctx context.Context, p *plan.Plan, store taskstore.Store, today time.Time, logger *slog.Logger) Timeline {
	if logger == nil {
		logger = slog.Default()
	}

	var groups []Group
	var minDate, maxDate time.Time
	for _, ph := range p.Phases {
		g := Group{PhaseID: ph.ID, PhaseTitle: ph.Title}
		for _, t := range ph.Tasks {
			st, _ := taskstore.Lookup(ctx, store, t.ID, logger)
			row, err := rowFor(t, st)
			if err != nil {
				if !errors.Is(err, errUnscheduled) {
					logger.Warn("skipping task on timeline", "task_id", t.ID, "error", err)
				}
				continue
			}
			if minDate.IsZero() || row.Start.Before(minDate) {
				minDate = row.Start
			}
			if maxDate.IsZero() || row.End.After(maxDate) {
				maxDate = row.End
			}
			g.Rows = append(g.Rows, row)
		}
		if len(g.Rows) > 0 {
			groups = append(groups, g)
		}
	}

	var tl Timeline
	if len(groups) == 0 {
		start := day(today)
		tl.Start = start
		tl.End = start.AddDate(0, 1, 0)
	} else {
		tl.Start = minDate.AddDate(0, 0, -padDays)
		tl.End = maxDate.AddDate(0, 0, padDays)
	}
	tl.Days = daysBetween(tl.Start, tl.End) + 1

	for gi := range groups {
		for ri := range groups[gi].Rows {
			r := &groups[gi].Rows[ri]
			r.Offset = daysBetween(tl.Start, r.Start)
			r.Span = daysBetween(r.Start, r.End) + 1
		}
	}
	tl.Groups = groups
	return tl
}

var errUnscheduled = errors.New("task is not scheduled")

func rowFor(t plan.Task, st *plan.TaskState) (Row, error) {
	startStr, endStr := t.ScheduleDate, t.ScheduleEndDate
	status, assignee := t.Status.Normalized(), t.Assignee
	if st != nil {
		if st.ScheduleDate != "" {
			startStr = st.ScheduleDate
		}
		if st.ScheduleEndDate != "" {
			endStr = st.ScheduleEndDate
		}
		if st.Assignee != "" {
			assignee = st.Assignee
		}
		status = plan.EffectiveStatus(t, st)
	}
	if startStr == "" || endStr == "" {
		return Row{}, errUnscheduled
	}
	start, err := plan.ParseDate(startStr)
	if err != nil {
		return Row{}, err
	}
	end, err := plan.ParseDate(endStr)
	if err != nil {
		return Row{}, err
	}
	if end.Before(start) {
		return Row{}, fmt.Errorf("end date %s is before start date %s", endStr, startStr)
	}
	return Row{
		TaskID:   t.ID,
		Title:    t.Title,
		Status:   status,
		Assignee: assignee,
		Start:    start,
		End:      end,
	}, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(day(b).Sub(day(a)).Hours() / 24)
}
