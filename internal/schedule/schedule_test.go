package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monday() time.Time {
	// 2025-03-10 is a Monday; mid-afternoon to prove the clock is ignored.
	return time.Date(2025, 3, 10, 15, 30, 0, 0, time.Local)
}

func TestNextOpenDates_TuesdayThursday(t *testing.T) {
	got := NextOpenDates(NewWeekdaySet(Terca, Quinta), 3, 30, monday())

	require.Len(t, got, 3)
	assert.Equal(t, "2025-03-11", got[0].Date)
	assert.Equal(t, Terca, got[0].Weekday)
	assert.Equal(t, "2025-03-13", got[1].Date)
	assert.Equal(t, Quinta, got[1].Weekday)
	assert.Equal(t, "2025-03-18", got[2].Date)
	assert.Equal(t, "Ter", got[0].Label)
	assert.Equal(t, "11/03", got[0].Short)
	for _, d := range got {
		assert.False(t, d.IsToday)
	}
}

func TestNextOpenDates_TodayFlag(t *testing.T) {
	got := NextOpenDates(NewWeekdaySet(Segunda, Quarta), 4, 30, monday())

	require.Len(t, got, 4)
	assert.True(t, got[0].IsToday)
	assert.Equal(t, "Hoje", got[0].Label)
	assert.Equal(t, "2025-03-10", got[0].Date)
	for _, d := range got[1:] {
		assert.False(t, d.IsToday, d.Date)
	}
}

func TestNextOpenDates_EmptySet(t *testing.T) {
	got := NextOpenDates(NewWeekdaySet(), 5, 30, monday())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNextOpenDates_WindowExhausted(t *testing.T) {
	// Only Sundays, 10 day window from a Monday: one Sunday fits.
	got := NextOpenDates(NewWeekdaySet(Domingo), 5, 10, monday())
	require.Len(t, got, 1)
	assert.Equal(t, "2025-03-16", got[0].Date)
}

func TestNextOpenDates_DegenerateArgs(t *testing.T) {
	all := NewWeekdaySet(CanonicalOrder...)
	assert.Empty(t, NextOpenDates(all, 0, 30, monday()))
	assert.Empty(t, NextOpenDates(all, 3, 0, monday()))
}

func TestNextOpenDates_Properties(t *testing.T) {
	sets := []WeekdaySet{
		NewWeekdaySet(Segunda),
		NewWeekdaySet(Sabado, Domingo),
		NewWeekdaySet(CanonicalOrder...),
		NewWeekdaySet(Terca, Quinta, Sexta),
	}
	start := time.Date(2024, 12, 28, 23, 59, 0, 0, time.Local)
	for _, set := range sets {
		for shift := 0; shift < 7; shift++ {
			today := start.AddDate(0, 0, shift)
			got := NextOpenDates(set, 6, 30, today)
			require.NotEmpty(t, got)

			seen := map[string]bool{}
			var prev time.Time
			for i, d := range got {
				parsed, err := ParseDate(d.Date)
				require.NoError(t, err)
				assert.True(t, set.Has(WeekdayOf(parsed.Weekday())), "weekday of %s not in set", d.Date)
				assert.False(t, seen[d.Date], "duplicate %s", d.Date)
				seen[d.Date] = true
				if i > 0 {
					assert.True(t, parsed.After(prev), "dates not increasing")
				}
				prev = parsed
				assert.Equal(t, d.Date == Midnight(today).Format(DateLayout), d.IsToday)
			}
		}
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want Weekday
	}{
		{"segunda", Segunda},
		{"Segunda-feira", Segunda},
		{"TERÇA", Terca},
		{"thursday", Quinta},
		{"sábado", Sabado},
		{" sunday ", Domingo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseWeekday("funday")
	assert.Error(t, err)
}

func TestWeekdaySetOrdered(t *testing.T) {
	set := NewWeekdaySet(Domingo, Quarta, Segunda, Weekday("bogus"))
	assert.Equal(t, []Weekday{Segunda, Quarta, Domingo}, set.Ordered())
	assert.False(t, set.Has(Weekday("bogus")))
}

func TestWeekdayConversions(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.Equal(t, d, WeekdayOf(d).TimeWeekday())
	}
	assert.Equal(t, "Sab", Sabado.Short())
}

func TestParseDateIsLocalMidnight(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, time.Local, d.Location())

	_, err = ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestCombineAndClock(t *testing.T) {
	ts, err := Combine("2025-03-10", "09:45:00")
	require.NoError(t, err)
	assert.Equal(t, 9, ts.Hour())
	assert.Equal(t, 45, ts.Minute())

	_, err = Combine("2025-03-10", "9h")
	assert.Error(t, err)

	assert.Equal(t, "08:30", TrimClock("08:30:00"))
	assert.Equal(t, "10/03/2025", FormatDate("2025-03-10"))
	assert.Equal(t, "garbage", FormatDate("garbage"))
}
