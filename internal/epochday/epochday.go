// Package epochday converts between wall-clock time and the integer
// epoch-day count (days since 1970-01-01 UTC) used throughout the store and
// scheduler as a stable "today" key for due dates.
package epochday

import "time"

// Today returns the epoch-day number for UTC midnight of now.
func Today(now time.Time) int {
	return FromTime(now)
}

// FromTime truncates t to its UTC calendar day and returns the number of
// days since the Unix epoch.
func FromTime(t time.Time) int {
	utc := t.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return int(midnight.Unix() / secondsPerDay)
}

// ToTime returns the UTC midnight instant for the given epoch day.
func ToTime(day int) time.Time {
	return time.Unix(int64(day)*secondsPerDay, 0).UTC()
}

const secondsPerDay = 86400
