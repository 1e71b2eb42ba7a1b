// Package timeframe resolves report range keys into concrete time windows.
// All window arithmetic is done in UTC; every report for the same key
// describes the same window.
package timeframe

import "time"

// Range keys accepted by the reporting API.
const (
	RangeKeyToday  = "today"
	RangeKey7Days  = "7d"
	RangeKey30Days = "30d"
	RangeKey90Days = "90d"
	RangeKey1Year  = "1y"
)

// presetDays maps a range key to its look-back duration in days. The "today"
// key is special-cased: it anchors at midnight of the current UTC day rather
// than a fixed look-back.
var presetDays = map[string]int{
	RangeKey7Days:  7,
	RangeKey30Days: 30,
	RangeKey90Days: 90,
	RangeKey1Year:  365,
}

// DateRange is a half-open [Start, End) window with the key it was resolved
// from.
type DateRange struct {
	Start time.Time
	End   time.Time
	Key   string
}

// IsKnown reports whether key is a valid range key.
func IsKnown(key string) bool {
	if key == RangeKeyToday {
		return true
	}
	_, ok := presetDays[key]
	return ok
}

// Resolve maps a range key to a concrete window ending at now. Unknown keys
// fall back to defaultKey (and to 7d should the default itself be invalid);
// an unknown range is never an error.
func Resolve(key, defaultKey string, now time.Time) DateRange {
	if !IsKnown(key) {
		key = defaultKey
	}
	if !IsKnown(key) {
		key = RangeKey7Days
	}

	now = now.UTC()
	if key == RangeKeyToday {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: now, Key: key}
	}

	days := presetDays[key]
	return DateRange{
		Start: now.AddDate(0, 0, -days),
		End:   now,
		Key:   key,
	}
}

// Previous returns the window of equal duration immediately preceding r,
// used for period-over-period comparisons.
func Previous(r DateRange) DateRange {
	delta := r.End.Sub(r.Start)
	return DateRange{
		Start: r.Start.Add(-delta),
		End:   r.Start,
		Key:   "prev_" + r.Key,
	}
}

// Duration returns the window length.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// StartDay returns the UTC midnight of the first day the window touches.
func (r DateRange) StartDay() time.Time {
	s := r.Start.UTC()
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
}

// EndDay returns the UTC midnight of the last day the window touches. An
// End falling exactly on midnight is exclusive, so that day is not counted.
func (r DateRange) EndDay() time.Time {
	e := r.End.UTC()
	day := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	if e.Equal(day) && r.End.After(r.Start) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// DayCount returns the number of calendar days the window touches, inclusive
// of both boundary days.
func (r DateRange) DayCount() int {
	return int(r.EndDay().Sub(r.StartDay())/(24*time.Hour)) + 1
}
