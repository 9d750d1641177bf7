package components

import (
	"fmt"
	"strings"

	"github.com/pablasso/plannah/internal/progress"
)

const (
	filledChar = "■"
	emptyChar  = "□"
)

// Progress renders a progress bar like: ■■■■□□□□ 50% (7/14)
type Progress struct {
	Summary progress.Summary
	Width   int // character width of the bar portion
}

// NewProgress creates a new Progress instance.
func NewProgress(s progress.Summary, width int) Progress {
	return Progress{Summary: s, Width: width}
}

// View returns the rendered progress bar string. A phase without tasks
// shows an empty bar at 0%.
func (p Progress) View() string {
	if p.Width <= 0 {
		return ""
	}

	pct := min(max(p.Summary.Percentage, 0), 100)
	filled := pct * p.Width / 100

	bar := strings.Repeat(filledChar, filled) + strings.Repeat(emptyChar, p.Width-filled)

	return fmt.Sprintf("%s %3d%% (%d/%d)", bar, pct, p.Summary.Completed, p.Summary.Total)
}
