package timeparse

import "time"

// Range is an inclusive-exclusive [Start, End) window used to test whether
// a timestamp falls within a relative word like "today" or "next week".
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls in [r.Start, r.End).
func (r Range) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && ts.Before(r.End)
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RelativeRange resolves "today" and "next week" to concrete windows
// against now. "overdue" is handled separately by OverdueBefore since it's
// open-ended rather than a bounded window.
func RelativeRange(word string, now time.Time) (Range, bool) {
	today := startOfDay(now)
	switch word {
	case "today":
		return Range{Start: today, End: today.AddDate(0, 0, 1)}, true
	case "next week":
		// ISO week starts Monday; "next week" is the 7 days starting the
		// Monday after the current one.
		weekday := int(today.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		thisMonday := today.AddDate(0, 0, -(weekday - 1))
		nextMonday := thisMonday.AddDate(0, 0, 7)
		return Range{Start: nextMonday, End: nextMonday.AddDate(0, 0, 7)}, true
	default:
		return Range{}, false
	}
}

// OverdueBefore returns the instant "overdue" compares against: any
// timestamp strictly before now.
func OverdueBefore(now time.Time) time.Time {
	return now
}
