package utils

import "time"

// DayBounds returns the first and last instant of the calendar day containing
// t, in the server's local time zone. The window is not UTC-normalized and
// DST boundaries are not specially handled.
func DayBounds(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
