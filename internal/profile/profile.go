// Package profile provides the business profile edited in the owner's
// settings screen and published on the public booking page.
package profile

import (
	"fmt"
	"strings"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/schedule"
)

// BusinessType is one of the fixed categories offered in settings.
type BusinessType string

const (
	TypeBarbershop BusinessType = "barbearia"
	TypeClinic     BusinessType = "consultorio"
	TypeSalon      BusinessType = "salao"
	TypeSpa        BusinessType = "spa"
	TypeOther      BusinessType = "outros"
)

var businessTypeLabels = map[BusinessType]string{
	TypeBarbershop: "Barbearia",
	TypeClinic:     "Consultório",
	TypeSalon:      "Salão de Beleza",
	TypeSpa:        "Spa",
	TypeOther:      "Outros",
}

// Label returns the display name, or the raw value for unknown types.
func (t BusinessType) Label() string {
	if l, ok := businessTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Known reports whether t is one of the fixed categories.
func (t BusinessType) Known() bool {
	_, ok := businessTypeLabels[t]
	return ok
}

// Window is a time-of-day range in HH:MM.
type Window struct {
	Open  string `json:"inicio"`
	Close string `json:"fim"`
}

// BlockKind distinguishes weekly blocks from one-off blocks.
type BlockKind string

const (
	BlockRecurring    BlockKind = "recorrente"
	BlockSpecificDate BlockKind = "data_especifica"
)

// BlockedPeriod is a window during which no bookings are offered.
type BlockedPeriod struct {
	Kind  BlockKind `json:"tipo"`
	Start string    `json:"inicio"`
	End   string    `json:"fim"`
	Date  string    `json:"data,omitempty"`
}

// Profile is the owner's business profile.
type Profile struct {
	ID             int64                       `json:"id,omitempty"`
	BusinessName   string                      `json:"nome_negocio"`
	BusinessType   BusinessType                `json:"tipo_negocio"`
	OperatingDays  []string                    `json:"dias_funcionamento"`
	OperatingHours map[schedule.Weekday]Window `json:"horarios_funcionamento"`
	BlockedPeriods []BlockedPeriod             `json:"horarios_bloqueados"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = fmt.Errorf("profile: %w", apperr.ErrValidation)

// Days returns the operating days as a set. Unknown names are ignored.
func (p *Profile) Days() schedule.WeekdaySet {
	set := schedule.NewWeekdaySet()
	for _, name := range p.OperatingDays {
		if w, err := schedule.ParseWeekday(name); err == nil {
			set[w] = struct{}{}
		}
	}
	return set
}

// SetDays stores the given days in canonical order.
func (p *Profile) SetDays(days schedule.WeekdaySet) {
	ordered := days.Ordered()
	p.OperatingDays = make([]string, len(ordered))
	for i, d := range ordered {
		p.OperatingDays[i] = string(d)
	}
}

// HoursFor returns the configured window for a day. A day without hours is
// tolerated and reported with ok=false.
func (p *Profile) HoursFor(day schedule.Weekday) (Window, bool) {
	w, ok := p.OperatingHours[day]
	if !ok || (w.Open == "" && w.Close == "") {
		return Window{}, false
	}
	return w, true
}

// SetHours configures the window for a day.
func (p *Profile) SetHours(day schedule.Weekday, w Window) {
	if p.OperatingHours == nil {
		p.OperatingHours = make(map[schedule.Weekday]Window)
	}
	p.OperatingHours[day] = w
}

// AddBlockedPeriod appends the default lunch block and returns its index.
func (p *Profile) AddBlockedPeriod() int {
	p.BlockedPeriods = append(p.BlockedPeriods, BlockedPeriod{
		Kind:  BlockRecurring,
		Start: "12:00",
		End:   "14:00",
	})
	return len(p.BlockedPeriods) - 1
}

// RemoveBlockedPeriod drops the entry at i, keeping the order of the rest.
func (p *Profile) RemoveBlockedPeriod(i int) error {
	if i < 0 || i >= len(p.BlockedPeriods) {
		return fmt.Errorf("profile: blocked period %d out of range", i)
	}
	p.BlockedPeriods = append(p.BlockedPeriods[:i:i], p.BlockedPeriods[i+1:]...)
	return nil
}

// Validate checks the settings form before it is sent to the API.
func (p *Profile) Validate() error {
	var problems []string

	if strings.TrimSpace(p.BusinessName) == "" {
		problems = append(problems, "nome do negócio é obrigatório")
	}
	if strings.TrimSpace(string(p.BusinessType)) == "" {
		problems = append(problems, "tipo de negócio é obrigatório")
	}

	days := p.Days()
	if len(days) == 0 {
		problems = append(problems, "selecione ao menos um dia de funcionamento")
	}
	for _, name := range p.OperatingDays {
		if _, err := schedule.ParseWeekday(name); err != nil {
			problems = append(problems, fmt.Sprintf("dia desconhecido: %s", name))
		}
	}

	for _, day := range schedule.CanonicalOrder {
		w, ok := p.OperatingHours[day]
		if !ok {
			continue
		}
		if !days.Has(day) {
			problems = append(problems, fmt.Sprintf("horário configurado para dia fechado: %s", day))
			continue
		}
		if err := checkWindow(w.Open, w.Close); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", day, err))
		}
	}

	for i, b := range p.BlockedPeriods {
		switch b.Kind {
		case BlockRecurring:
		case BlockSpecificDate:
			if _, err := schedule.ParseDate(b.Date); err != nil {
				problems = append(problems, fmt.Sprintf("bloqueio %d: data inválida", i+1))
			}
		default:
			problems = append(problems, fmt.Sprintf("bloqueio %d: tipo inválido %q", i+1, b.Kind))
		}
		if err := checkWindow(b.Start, b.End); err != nil {
			problems = append(problems, fmt.Sprintf("bloqueio %d: %v", i+1, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func checkWindow(start, end string) error {
	sh, sm, err := schedule.ParseClock(start)
	if err != nil {
		return fmt.Errorf("início inválido %q", start)
	}
	eh, em, err := schedule.ParseClock(end)
	if err != nil {
		return fmt.Errorf("fim inválido %q", end)
	}
	if eh*60+em <= sh*60+sm {
		return fmt.Errorf("fim %s deve ser após início %s", end, start)
	}
	return nil
}
