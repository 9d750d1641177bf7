package views

import (
	"context"
	"strings"
	"testing"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/schedule"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/tui/msgs"
)

func TestTimelineModel_View(t *testing.T) {
	p := plan.Default()
	p.Phases[0].Tasks[0].ScheduleDate = "2024-05-01"
	p.Phases[0].Tasks[0].ScheduleEndDate = "2024-05-10"

	m := NewTimelineModel()
	m.SetSize(100, 20)
	m.SetTimeline(schedule.Build(context.Background(), p, taskstore.NewMemory(), fixedNow, nil))

	view := m.View()
	for _, want := range []string{"Timeline", "Review and Refine", "2024-04-24"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestTimelineModel_Empty(t *testing.T) {
	m := NewTimelineModel()
	m.SetSize(100, 20)
	m.SetTimeline(schedule.Build(context.Background(), plan.Default(), taskstore.NewMemory(), fixedNow, nil))

	if !strings.Contains(m.View(), "No scheduled tasks") {
		t.Errorf("got %q", m.View())
	}
}

func TestTimelineModel_BackKeys(t *testing.T) {
	for _, k := range []string{"esc", "t"} {
		m := NewTimelineModel()
		_, cmd := m.Update(key(k))
		if got := mustMsg(t, cmd); got != (msgs.GoToPlanMsg{}) {
			t.Errorf("%s: got %#v", k, got)
		}
	}
}
