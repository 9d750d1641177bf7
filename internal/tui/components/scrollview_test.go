package components

import (
	"fmt"
	"strings"
	"testing"
)

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return lines
}

func TestScrollbar(t *testing.T) {
	t.Run("hidden when content fits", func(t *testing.T) {
		for _, c := range Scrollbar(4, 3, 0) {
			if c != " " {
				t.Fatalf("expected blank gutter, got %q", c)
			}
		}
	})

	t.Run("thumb at top", func(t *testing.T) {
		got := strings.Join(Scrollbar(4, 8, 0), "")
		if got != "██││" {
			t.Errorf("got %q, want %q", got, "██││")
		}
	})

	t.Run("thumb at bottom", func(t *testing.T) {
		got := strings.Join(Scrollbar(4, 8, 4), "")
		if got != "││██" {
			t.Errorf("got %q, want %q", got, "││██")
		}
	})

	t.Run("minimum thumb", func(t *testing.T) {
		got := strings.Count(strings.Join(Scrollbar(3, 300, 0), ""), "█")
		if got != 1 {
			t.Errorf("thumb size: got %d, want 1", got)
		}
	})
}

func TestScrollView_EnsureVisible(t *testing.T) {
	s := NewScrollView(20, 3)
	s.SetLines(numbered(10))

	s.EnsureVisible(5)
	if s.Offset() != 3 {
		t.Errorf("offset after scrolling down: got %d, want 3", s.Offset())
	}
	s.EnsureVisible(4)
	if s.Offset() != 3 {
		t.Errorf("visible line moved the view: offset %d", s.Offset())
	}
	s.EnsureVisible(1)
	if s.Offset() != 1 {
		t.Errorf("offset after scrolling up: got %d, want 1", s.Offset())
	}
}

func TestScrollView_View(t *testing.T) {
	s := NewScrollView(10, 2)
	s.SetLines([]string{"a", "b", "c", "d"})

	rows := strings.Split(s.View(), "\n")
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if !strings.HasPrefix(rows[0], "a") || !strings.HasSuffix(rows[0], "█") {
		t.Errorf("first row: got %q", rows[0])
	}
	if got := len([]rune(rows[1])); got != 10 {
		t.Errorf("row width: got %d, want 10", got)
	}
}

func TestScrollView_ClipsLongLines(t *testing.T) {
	s := NewScrollView(6, 2)
	s.SetLines([]string{"abcdefghij", "k"})

	rows := strings.Split(s.View(), "\n")
	if !strings.HasPrefix(rows[0], "abcde") {
		t.Errorf("first row: got %q", rows[0])
	}
	if !strings.HasPrefix(rows[1], "k") {
		t.Errorf("long line wrapped onto the next row: got %q", rows[1])
	}
}
