// Package schedule holds calendar helpers shared by the dashboard, the public
// booking flow and the chat assistant: weekday keys, date parsing and the
// next-open-days enumerator.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekday is a weekday key as the booking API spells it in business profiles.
type Weekday string

const (
	Domingo Weekday = "domingo"
	Segunda Weekday = "segunda"
	Terca   Weekday = "terca"
	Quarta  Weekday = "quarta"
	Quinta  Weekday = "quinta"
	Sexta   Weekday = "sexta"
	Sabado  Weekday = "sabado"
)

// byTimeWeekday is indexed by time.Weekday (Sunday = 0).
var byTimeWeekday = [7]Weekday{Domingo, Segunda, Terca, Quarta, Quinta, Sexta, Sabado}

// CanonicalOrder is the order days are rendered in settings screens.
var CanonicalOrder = []Weekday{Segunda, Terca, Quarta, Quinta, Sexta, Sabado, Domingo}

var aliases = map[string]Weekday{
	"domingo": Domingo, "sunday": Domingo, "sun": Domingo, "dom": Domingo,
	"segunda": Segunda, "monday": Segunda, "mon": Segunda, "seg": Segunda,
	"terca": Terca, "terça": Terca, "tuesday": Terca, "tue": Terca, "ter": Terca,
	"quarta": Quarta, "wednesday": Quarta, "wed": Quarta, "qua": Quarta,
	"quinta": Quinta, "thursday": Quinta, "thu": Quinta, "qui": Quinta,
	"sexta": Sexta, "friday": Sexta, "fri": Sexta, "sex": Sexta,
	"sabado": Sabado, "sábado": Sabado, "saturday": Sabado, "sat": Sabado, "sab": Sabado,
}

// WeekdayOf returns the key for a time.Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	return byTimeWeekday[int(d)%7]
}

// ParseWeekday accepts API keys, Portuguese labels and English names.
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, "-feira")
	if w, ok := aliases[key]; ok {
		return w, nil
	}
	return "", fmt.Errorf("schedule: unknown weekday %q", s)
}

// Valid reports whether w is one of the seven canonical keys.
func (w Weekday) Valid() bool {
	_, ok := w.index()
	return ok
}

// TimeWeekday converts back to time.Weekday. Unknown keys map to Sunday.
func (w Weekday) TimeWeekday() time.Weekday {
	i, _ := w.index()
	return time.Weekday(i)
}

// Short is the capitalised three letter label ("Seg", "Ter").
func (w Weekday) Short() string {
	s := string(w)
	if len(s) < 3 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:3]
}

func (w Weekday) index() (int, bool) {
	for i, d := range byTimeWeekday {
		if d == w {
			return i, true
		}
	}
	return 0, false
}

// WeekdaySet is an unordered set of operating days.
type WeekdaySet map[Weekday]struct{}

// NewWeekdaySet builds a set from keys. Invalid keys are dropped.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		if d.Valid() {
			set[d] = struct{}{}
		}
	}
	return set
}

// ParseWeekdaySet parses names leniently, returning the first unknown name as an error.
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	set := make(WeekdaySet, len(names))
	for _, n := range names {
		w, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		set[w] = struct{}{}
	}
	return set, nil
}

// Has reports membership.
func (s WeekdaySet) Has(w Weekday) bool {
	_, ok := s[w]
	return ok
}

// Ordered returns the members in canonical render order.
func (s WeekdaySet) Ordered() []Weekday {
	out := make([]Weekday, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return renderRank(out[i]) < renderRank(out[j]) })
	return out
}

func renderRank(w Weekday) int {
	for i, d := range CanonicalOrder {
		if d == w {
			return i
		}
	}
	return len(CanonicalOrder)
}
