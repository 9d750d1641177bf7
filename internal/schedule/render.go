package schedule

import (
	"fmt"
	"io"
	"strings"

	"github.com/pablasso/plannah/internal/plan"
)

// StatusGlyph is the bar fill for each status.
var StatusGlyph = map[plan.TaskStatus]rune{
	plan.TaskStatusPending:    '░',
	plan.TaskStatusInProgress: '▒',
	plan.TaskStatusCompleted:  '█',
	plan.TaskStatusBlocked:    '╳',
}

// Bar returns the bar for row scaled to width columns. Every row gets at
// least one column.
func Bar(tl Timeline, row Row, width int) string {
	if width <= 0 || tl.Days <= 0 {
		return ""
	}
	left := row.Offset * width / tl.Days
	span := row.Span * width / tl.Days
	if span < 1 {
		span = 1
	}
	if left >= width {
		left = width - 1
	}
	if left+span > width {
		span = width - left
	}
	glyph, ok := StatusGlyph[row.Status]
	if !ok {
		glyph = StatusGlyph[plan.TaskStatusPending]
	}
	return strings.Repeat(" ", left) + strings.Repeat(string(glyph), span) + strings.Repeat(" ", width-left-span)
}

// Render writes a plain-text Gantt chart with labels of labelWidth columns
// and bars of barWidth columns.
func Render(w io.Writer, tl Timeline, labelWidth, barWidth int) error {
	header := fmt.Sprintf("%-*s %s", labelWidth, "", axis(tl, barWidth))
	if _, err := fmt.Fprintln(w, strings.TrimRight(header, " ")); err != nil {
		return err
	}
	if tl.Empty() {
		_, err := fmt.Fprintln(w, "No scheduled tasks. Set a start and end date on a task to place it here.")
		return err
	}
	for _, g := range tl.Groups {
		if _, err := fmt.Fprintln(w, truncate(g.PhaseTitle, labelWidth+barWidth+1)); err != nil {
			return err
		}
		for _, r := range g.Rows {
			label := truncate("  "+r.Title, labelWidth)
			if _, err := fmt.Fprintf(w, "%-*s %s\n", labelWidth, label, Bar(tl, r, barWidth)); err != nil {
				return err
			}
		}
	}
	return nil
}

// axis labels the start and end dates at either edge of the bar area.
func axis(tl Timeline, width int) string {
	start := plan.FormatDate(tl.Start)
	end := plan.FormatDate(tl.End)
	gap := width - len(start) - len(end)
	if gap < 1 {
		return start
	}
	return start + strings.Repeat(" ", gap) + end
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
