package filter

import (
	"fmt"
	"strings"
	"time"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// ParseDateBound parses a range bound. Date-only values are the start of that day,
// or the last instant of it when isEnd is set. Values without an offset are read in loc.
func ParseDateBound(s string, isEnd bool, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		if isEnd {
			return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return d, nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", ErrInvalidSpec, s)
}

// NewDateRange builds an inclusive range from optional textual bounds.
// It returns nil when both bounds are empty.
func NewDateRange(from, to string, loc *time.Location) (*DateRange, error) {
	if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		return nil, nil
	}
	dr := &DateRange{}
	if strings.TrimSpace(from) != "" {
		start, err := ParseDateBound(from, false, loc)
		if err != nil {
			return nil, err
		}
		dr.Start = &start
	}
	if strings.TrimSpace(to) != "" {
		end, err := ParseDateBound(to, true, loc)
		if err != nil {
			return nil, err
		}
		dr.End = &end
	}
	return dr, nil
}

// MonthRange returns [first instant of the month containing t, first instant of the next month).
func MonthRange(t time.Time) *DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0)
	return &DateRange{Start: &start, End: &end, EndExclusive: true}
}
