package schedule

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

func date(s string) time.Time {
	d, err := plan.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuild_Empty(t *testing.T) {
	today := time.Date(2024, 1, 31, 18, 45, 0, 0, time.UTC)
	tl := Build(context.Background(), plan.Default(), taskstore.NewMemory(), today, nil)

	if !tl.Empty() {
		t.Fatal("default plan has no schedule")
	}
	if !tl.Start.Equal(date("2024-01-31")) {
		t.Errorf("start: got %v", tl.Start)
	}
	// AddDate normalizes Feb 31 to Mar 2.
	if !tl.End.Equal(date("2024-03-02")) {
		t.Errorf("end: got %v", tl.End)
	}
	if tl.Days != 32 {
		t.Errorf("days: got %d, want 32", tl.Days)
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	p := &plan.Plan{Phases: []plan.Phase{
		{ID: "p1", Title: "One", Tasks: []plan.Task{
			{ID: "a", Title: "A", ScheduleDate: "2024-03-10", ScheduleEndDate: "2024-03-12"},
			{ID: "b", Title: "B", ScheduleDate: "2024-03-01"},
			{ID: "c", Title: "C", ScheduleDate: "bad", ScheduleEndDate: "2024-03-05"},
			{ID: "d", Title: "D", ScheduleDate: "2024-03-09", ScheduleEndDate: "2024-03-08"},
		}},
		{ID: "p2", Title: "Two", Tasks: []plan.Task{
			{ID: "e", Title: "E"},
		}},
		{ID: "p3", Title: "Three", Tasks: []plan.Task{
			{ID: "f", Title: "F"},
		}},
	}}
	store := taskstore.NewMemory()
	// State fills in the missing end date of b and schedules e entirely.
	store.SaveState(ctx, "b", plan.TaskState{ScheduleEndDate: "2024-03-02", Status: plan.TaskStatusCompleted})
	store.SaveState(ctx, "e", plan.TaskState{ScheduleDate: "2024-03-20", ScheduleEndDate: "2024-03-20"})

	tl := Build(ctx, p, store, time.Now(), nil)

	if !tl.Start.Equal(date("2024-02-23")) || !tl.End.Equal(date("2024-03-27")) {
		t.Errorf("range: got %s to %s", plan.FormatDate(tl.Start), plan.FormatDate(tl.End))
	}
	if tl.Days != 34 {
		t.Errorf("days: got %d, want 34", tl.Days)
	}
	if len(tl.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(tl.Groups))
	}
	g := tl.Groups[0]
	if g.PhaseID != "p1" || len(g.Rows) != 2 {
		t.Fatalf("group p1: %+v", g)
	}
	if g.Rows[0].TaskID != "a" || g.Rows[0].Offset != 16 || g.Rows[0].Span != 3 {
		t.Errorf("row a: %+v", g.Rows[0])
	}
	if g.Rows[1].TaskID != "b" || g.Rows[1].Offset != 7 || g.Rows[1].Span != 2 {
		t.Errorf("row b: %+v", g.Rows[1])
	}
	if g.Rows[1].Status != plan.TaskStatusCompleted {
		t.Errorf("row b status: got %q", g.Rows[1].Status)
	}
	if tl.Groups[1].Rows[0].Span != 1 {
		t.Errorf("single-day task span: got %d", tl.Groups[1].Rows[0].Span)
	}
}

func TestBar(t *testing.T) {
	tl := Timeline{Days: 10}
	tests := []struct {
		row  Row
		want string
	}{
		{Row{Offset: 0, Span: 10, Status: plan.TaskStatusCompleted}, "██████████"},
		{Row{Offset: 2, Span: 3, Status: plan.TaskStatusPending}, "  ░░░     "},
		{Row{Offset: 9, Span: 5, Status: plan.TaskStatusBlocked}, "         ╳"},
	}
	for _, tc := range tests {
		if got := Bar(tl, tc.row, 10); got != tc.want {
			t.Errorf("Bar(%+v) = %q, want %q", tc.row, got, tc.want)
		}
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Timeline{Start: date("2024-01-01"), End: date("2024-02-01"), Days: 32}, 10, 30); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No scheduled tasks") {
		t.Errorf("expected empty message, got %q", buf.String())
	}

	buf.Reset()
	tl := Timeline{
		Start: date("2024-01-01"), End: date("2024-01-10"), Days: 10,
		Groups: []Group{{PhaseTitle: "Tooling", Rows: []Row{{Title: "Stencils", Offset: 0, Span: 5, Status: plan.TaskStatusInProgress}}}},
	}
	if err := Render(&buf, tl, 12, 30); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2024-01-01", "2024-01-10", "Tooling", "  Stencils", "▒"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
