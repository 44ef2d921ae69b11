package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar date used on the wire.
	DateLayout  = "2006-01-02"
	// ClockLayout is the HH:MM time of day used on the wire.
	ClockLayout = "15:04"
)

// ParseDate builds local midnight for an ISO date. The string is never parsed
// as an instant, so the weekday cannot shift across a UTC boundary.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseClock parses HH:MM, tolerating a trailing :SS.
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if len(s) == len("15:04:05") {
		s = s[:5]
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule: invalid time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Combine returns the local instant for an ISO date and HH:MM time.
func Combine(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location()), nil
}

// TrimClock cuts "09:00:00" to "09:00".
func TrimClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// FormatDate renders an ISO date as dd/mm/yyyy. Unparseable input is returned as is.
func FormatDate(iso string) string {
	d, err := ParseDate(iso)
	if err != nil {
		return iso
	}
	return d.Format("02/01/2006")
}

// Midnight truncates t to the start of its calendar day in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
