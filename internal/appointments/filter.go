package appointments

import (
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/agenda/internal/schedule"
)

// DayFilter selects one weekday or, as the zero value, all days.
type DayFilter int

// AllDays disables the weekday criterion.
const AllDays DayFilter = 0

// Day returns the filter for a weekday.
func Day(d time.Weekday) DayFilter { return DayFilter(d) + 1 }

// Weekday reports the selected weekday; ok is false for AllDays.
func (f DayFilter) Weekday() (time.Weekday, bool) {
	if f < 1 || f > 7 {
		return 0, false
	}
	return time.Weekday(f - 1), true
}

// Criteria are combined with AND. The zero value matches everything.
type Criteria struct {
	Query  string
	Status *Status
	Day    DayFilter
	// From and To bound the appointment date inclusively, compared by calendar day.
	From *time.Time
	To   *time.Time
}

// WithStatus returns a pointer for Criteria.Status.
func WithStatus(s Status) *Status { return &s }

type keyed struct {
	appt  Appointment
	start time.Time
	valid bool
}

// Filter returns the appointments matching every supplied criterion, ordered
// by (date, time) ascending. Ties keep their input order. The input slice is
// not modified.
//
// Records with an unparseable date never match a day or date bound criterion
// and sort after all well-formed records.
func Filter(list []Appointment, c Criteria) []Appointment {
	query := strings.ToLower(c.Query)

	var from, to time.Time
	if c.From != nil {
		from = schedule.Midnight(*c.From)
	}
	if c.To != nil {
		to = schedule.Midnight(*c.To)
	}

	matched := make([]keyed, 0, len(list))
	for _, a := range list {
		if query != "" && !containsFold(a.Name, query) && !containsFold(a.Email, query) {
			continue
		}
		if c.Status != nil && a.Status != *c.Status {
			continue
		}

		date, dateErr := schedule.ParseDate(a.Date)
		needsDate := c.Day != AllDays || c.From != nil || c.To != nil
		if needsDate && dateErr != nil {
			continue
		}
		if c.Day != AllDays && Day(date.Weekday()) != c.Day {
			continue
		}
		if c.From != nil && date.Before(from) {
			continue
		}
		if c.To != nil && date.After(to) {
			continue
		}

		start, err := schedule.Combine(a.Date, a.Time)
		matched = append(matched, keyed{appt: a, start: start, valid: err == nil})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.valid != b.valid {
			return a.valid
		}
		return a.start.Before(b.start)
	})

	out := make([]Appointment, len(matched))
	for i, k := range matched {
		out[i] = k.appt
	}
	return out
}

func containsFold(field, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(field), lowerQuery)
}

// Upcoming returns criteria for today's weekday from today onward, the default
// dashboard view.
func Upcoming(now time.Time) Criteria {
	today := schedule.Midnight(now)
	return Criteria{Day: Day(today.Weekday()), From: &today}
}
