// Package dateutil holds the day-granularity date arithmetic used by the
// booking window: canonical formats, selectable-range checks and bounded
// prev/next navigation.
package dateutil

import (
	"time"
)

const (
	// DateOnly is the canonical interchange form for booking dates.
	DateOnly = "2006-01-02"
	// TimeLabel is the canonical interchange form for slot times (24-hour).
	TimeLabel = "15:04"
)

// Direction of a single-day navigation step.
type Direction int

const (
	StepBackward Direction = -1
	StepForward  Direction = 1
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of whole days from a to b,
// compared at day granularity.
func DaysBetween(a, b time.Time) int {
	a = StartOfDay(a)
	b = StartOfDay(b)
	return int(b.Sub(a).Hours() / 24)
}

// IsSelectable reports whether date falls inside the booking window
// [today, today+maxDays-1]. Time-of-day on either argument is ignored.
func IsSelectable(date, today time.Time, maxDays int) bool {
	if maxDays <= 0 {
		return false
	}
	offset := DaysBetween(today, date)
	return offset >= 0 && offset <= maxDays-1
}

// ClampStep steps current one day in the given direction, returning the new
// date. Steps that would leave the booking window are rejected: the input
// date is returned unchanged and ok is false.
func ClampStep(current time.Time, dir Direction, today time.Time, maxDays int) (time.Time, bool) {
	stepped := StartOfDay(current).AddDate(0, 0, int(dir))
	if !IsSelectable(stepped, today, maxDays) {
		return current, false
	}
	return stepped, true
}

// FormatDate renders t in the canonical yyyy-MM-dd form.
func FormatDate(t time.Time) string {
	return t.Format(DateOnly)
}

// ParseDate parses a canonical yyyy-MM-dd date in the local location.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateOnly, s, time.Local)
}
