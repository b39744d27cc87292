package query

import (
	"fmt"
	"time"

	"github.com/starford/almanac/internal/dates"
)

// Timeline names a date window relative to "now".
type Timeline string

const (
	TimelineAll     Timeline = "all"
	TimelineToday   Timeline = "today"
	TimelineWeek    Timeline = "week"
	TimelineMonth   Timeline = "month"
	TimelineYear    Timeline = "year"
	TimelineOverdue Timeline = "overdue"
)

// Window is a time range. End is inclusive when Closed is set.
type Window struct {
	Start  time.Time
	End    time.Time
	Closed bool
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.Closed {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}

// Window computes the range for tl in now's location. Weeks start on Sunday.
func (tl Timeline) Window(now time.Time) (Window, error) {
	midnight := dates.StartOfDay(now)
	loc := now.Location()
	y, m, _ := now.Date()

	switch tl {
	case TimelineToday:
		return Window{
			Start:  midnight,
			End:    midnight.AddDate(0, 0, 1).Add(-time.Millisecond),
			Closed: true,
		}, nil
	case TimelineWeek:
		start := midnight.AddDate(0, 0, -int(now.Weekday()))
		return Window{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case TimelineMonth:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		return Window{
			Start:  first,
			End:    time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc),
			Closed: true,
		}, nil
	case TimelineYear:
		return Window{
			Start:  time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:    time.Date(y, time.December, 31, 23, 59, 59, 0, loc),
			Closed: true,
		}, nil
	case TimelineOverdue:
		return Window{Start: time.Unix(0, 0).In(loc), End: midnight}, nil
	}
	return Window{}, fmt.Errorf("%w: %q", ErrTimeline, string(tl))
}

// ParseTimeline validates a raw timeline name. Empty input means all.
func ParseTimeline(s string) (Timeline, error) {
	switch tl := Timeline(s); tl {
	case "", TimelineAll:
		return TimelineAll, nil
	case TimelineToday, TimelineWeek, TimelineMonth, TimelineYear, TimelineOverdue:
		return tl, nil
	}
	return "", fmt.Errorf("%w: %q", ErrTimeline, s)
}
