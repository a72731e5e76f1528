// Package period resolves the symbolic ?periodo= selector into a concrete
// closed date interval used to filter expense aggregations.
package period

import "time"

// Wire values accepted by the ?periodo= query parameter
const (
	CurrentMonth = "mes_atual" // First through last day of the current month
	Last30Days   = "ult_30"    // Today minus 30 days through today, inclusive
	AllTime      = "todos"     // No restriction
)

// Range is a closed date interval [Start, End]
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range, bounds inclusive
func (r Range) Contains(d time.Time) bool {
	day := truncate(d)
	return !day.Before(truncate(r.Start)) && !day.After(truncate(r.End))
}

// Canonical maps any selector onto the wire value it behaves as: empty means
// CurrentMonth, anything unrecognized behaves as AllTime. Callers keying
// caches by selector use this so made-up values collapse onto one key.
func Canonical(selector string) string {
	switch selector {
	case "", CurrentMonth:
		return CurrentMonth
	case Last30Days:
		return Last30Days
	default:
		return AllTime
	}
}

// Resolve turns a selector into a date range relative to today. An empty
// selector means CurrentMonth; anything unrecognized falls back to no
// restriction (nil), same as AllTime.
func Resolve(selector string, today time.Time) *Range {
	if selector == "" {
		selector = CurrentMonth
	}
	today = truncate(today)
	switch selector {
	case CurrentMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		// AddDate normalizes day 0 of the next month to the last day of this
		// one, which keeps leap-year Februaries correct.
		end := start.AddDate(0, 1, -1)
		return &Range{Start: start, End: end}
	case Last30Days:
		return &Range{Start: today.AddDate(0, 0, -30), End: today}
	default:
		return nil
	}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
