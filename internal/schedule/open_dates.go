package schedule

import "time"

const (
	// DefaultOpenDays is how many dates the chat assistant offers.
	DefaultOpenDays     = 5
	// DefaultSearchWindow caps the forward scan in calendar days.
	DefaultSearchWindow = 30

	todayLabel = "Hoje"
)

// OpenDate is one calendar date on which the business operates.
type OpenDate struct {
	Date    string  `json:"date"`
	Weekday Weekday `json:"weekday"`
	Label   string  `json:"label"`
	Short   string  `json:"short"`
	IsToday bool    `json:"is_today"`
}

// NextOpenDates scans forward from today's calendar day, one day at a time for
// at most searchWindowDays days, and returns up to count dates whose weekday is
// in days. An empty set yields an empty result once the window is exhausted.
func NextOpenDates(days WeekdaySet, count, searchWindowDays int, today time.Time) []OpenDate {
	out := []OpenDate{}
	if count < 1 || searchWindowDays < 1 {
		return out
	}

	start := Midnight(today)
	for offset := 0; offset < searchWindowDays && len(out) < count; offset++ {
		day := start.AddDate(0, 0, offset)
		wd := WeekdayOf(day.Weekday())
		if !days.Has(wd) {
			continue
		}
		label := wd.Short()
		if offset == 0 {
			label = todayLabel
		}
		out = append(out, OpenDate{
			Date:    day.Format(DateLayout),
			Weekday: wd,
			Label:   label,
			Short:   day.Format("02/01"),
			IsToday: offset == 0,
		})
	}
	return out
}
