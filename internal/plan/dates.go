package plan

import (
	"fmt"
	"time"
)

// DateLayout is the format of every date field.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate formats t as a YYYY-MM-DD date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
