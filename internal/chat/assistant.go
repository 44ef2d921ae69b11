// Package chat is the canned-response assistant on the public booking page.
// It walks the client from open days to free times and hands the chosen
// slot to the booking form.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/bookingapi"
	"github.com/wolfman30/agenda/internal/profile"
	"github.com/wolfman30/agenda/internal/schedule"
	"github.com/wolfman30/agenda/pkg/logging"
)

const (
	greeting         = "Olá! Posso ajudar você a encontrar horários disponíveis! 😊"
	msgLoading       = "Consultando horários..."
	msgNoProfile     = "Não foi possível encontrar o perfil do estabelecimento. ❌"
	msgConnection    = "Erro de conexão. 🔌"
	msgChecking      = "Verificando..."
	msgTimesFailed   = "Erro ao buscar horários."
	msgFillTheForm   = "Perfeito! Preencha seus dados no formulário para confirmar. ✅"
	noFreeTimeFormat = "Nenhum horário livre para %s."
)

// API is the subset of the booking API the assistant needs.
type API interface {
	PublicProfile(ctx context.Context, ownerID string) (*profile.Profile, error)
	AvailableTimes(ctx context.Context, ownerID, date string) ([]string, error)
}

// Kind tells the renderer how to draw a message.
type Kind string

const (
	KindBot       Kind = "bot"
	KindUser      Kind = "user"
	KindComponent Kind = "component"
)

// Message is one transcript entry. Component messages carry either Days or
// Times as selectable options.
type Message struct {
	Kind  Kind                `json:"kind"`
	Text  string              `json:"text,omitempty"`
	Days  []schedule.OpenDate `json:"days,omitempty"`
	Times []string            `json:"times,omitempty"`
}

// Option customises an Assistant.
type Option func(*Assistant)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithOpenDays sets how many days are offered and how far ahead to look.
func WithOpenDays(count, window int) Option {
	return func(a *Assistant) {
		if count > 0 {
			a.openDays = count
		}
		if window > 0 {
			a.window = window
		}
	}
}

// OnTimeSelect is called with the chosen date and time.
func OnTimeSelect(fn func(date, clock string)) Option {
	return func(a *Assistant) { a.onTimeSelect = fn }
}

// Assistant holds one conversation with a visitor.
type Assistant struct {
	ID string

	api          API
	ownerID      string
	onTimeSelect func(date, clock string)
	now          func() time.Time
	openDays     int
	window       int
	logger       *logging.Logger

	mu         sync.Mutex
	transcript []Message
}

// New starts a conversation for the business owned by ownerID.
func New(api API, ownerID string, logger *logging.Logger, opts ...Option) *Assistant {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Assistant{
		ID:         uuid.NewString(),
		api:        api,
		ownerID:    ownerID,
		now:        time.Now,
		openDays:   schedule.DefaultOpenDays,
		window:     schedule.DefaultSearchWindow,
		logger:     logger,
		transcript: []Message{{Kind: KindBot, Text: greeting}},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("chat_id", a.ID, "owner_id", ownerID)
	return a
}

// Transcript returns a copy of the conversation so far.
func (a *Assistant) Transcript() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.transcript))
	copy(out, a.transcript)
	return out
}

func (a *Assistant) add(msgs ...Message) {
	a.mu.Lock()
	a.transcript = append(a.transcript, msgs...)
	a.mu.Unlock()
}

func bot(text string) Message  { return Message{Kind: KindBot, Text: text} }
func user(text string) Message { return Message{Kind: KindUser, Text: text} }

// LoadTimes fetches the business profile and offers the next open days.
func (a *Assistant) LoadTimes(ctx context.Context) []schedule.OpenDate {
	a.add(bot(msgLoading))

	p, err := a.api.PublicProfile(ctx, a.ownerID)
	if err != nil {
		if errors.Is(err, bookingapi.ErrProfileNotFound) || apperr.Classify(err) == apperr.KindApplication {
			a.add(bot(msgNoProfile))
		} else {
			a.logger.Warn("chat: load profile failed", "error", err)
			a.add(bot(msgConnection))
		}
		return nil
	}

	days := schedule.NextOpenDates(p.Days(), a.openDays, a.window, a.now())
	a.add(Message{Kind: KindComponent, Days: days})
	return days
}

// SelectDate lists the free times for date (YYYY-MM-DD).
func (a *Assistant) SelectDate(ctx context.Context, date string) []string {
	shown := schedule.FormatDate(date)
	a.add(user("Ver horários para "+shown), bot(msgChecking))

	times, err := a.api.AvailableTimes(ctx, a.ownerID, date)
	if err != nil {
		a.logger.Warn("chat: load times failed", "date", date, "error", err)
		a.add(bot(msgTimesFailed))
		return nil
	}
	if len(times) == 0 {
		a.add(bot(fmt.Sprintf(noFreeTimeFormat, shown)))
		return nil
	}
	a.add(Message{Kind: KindComponent, Times: times})
	return times
}

// SelectTime confirms the choice and hands it to the booking form.
func (a *Assistant) SelectTime(date, clock string) {
	a.add(user(fmt.Sprintf("Quero %s.", clock)), bot(msgFillTheForm))
	if a.onTimeSelect != nil {
		a.onTimeSelect(date, clock)
	}
}
