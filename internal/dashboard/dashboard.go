// Package dashboard drives the owner's appointment screen: it keeps the
// fetched list, applies the current filter and turns every API failure into
// a toast.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/bookingapi"
	"github.com/wolfman30/agenda/internal/export"
	"github.com/wolfman30/agenda/internal/notify"
	"github.com/wolfman30/agenda/internal/observability/metrics"
	"github.com/wolfman30/agenda/internal/premium"
	"github.com/wolfman30/agenda/internal/profile"
	"github.com/wolfman30/agenda/internal/realtime"
	"github.com/wolfman30/agenda/internal/schedule"
	"github.com/wolfman30/agenda/internal/session"
	"github.com/wolfman30/agenda/pkg/logging"
)

// ErrLimitReached is returned when the daily AI allowance is used up.
var ErrLimitReached = errors.New("dashboard: daily AI limit reached")

// API is the booking API as used by the dashboard.
type API interface {
	ListAppointments(ctx context.Context) ([]appointments.Appointment, error)
	CreateAppointment(ctx context.Context, a bookingapi.NewAppointment) (string, error)
	SetStatus(ctx context.Context, ownerEmail string, id appointments.ID, action appointments.Action) (string, error)
	Reschedule(ctx context.Context, ownerEmail string, id appointments.ID, date, clock string) (string, error)
	MyProfile(ctx context.Context) (*profile.Profile, error)
	SaveProfile(ctx context.Context, p *profile.Profile) (string, error)
	ShareLink(ctx context.Context, ownerID string) (bookingapi.ShareLink, error)
	TrialStatus(ctx context.Context) (premium.Status, error)
	SuggestTimes(ctx context.Context) (string, error)
	PersonalStats(ctx context.Context) (bookingapi.Stats, error)
}

// Sessions is the part of session.Manager the dashboard needs.
type Sessions interface {
	Current() (session.Session, bool)
	SignOut(ctx context.Context) error
}

// Dashboard is safe for concurrent use; realtime refetches may run while the
// owner acts on the list.
type Dashboard struct {
	api      API
	sessions Sessions
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logger   *logging.Logger
	onChange func([]appointments.Appointment)

	mu       sync.Mutex
	list     []appointments.Appointment
	criteria appointments.Criteria
}

// Option customises a Dashboard.
type Option func(*Dashboard)

// WithMetrics observes realtime events and refetches.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(d *Dashboard) { d.metrics = m }
}

// WithOnChange is called with the filtered view after every successful load.
func WithOnChange(fn func([]appointments.Appointment)) Option {
	return func(d *Dashboard) { d.onChange = fn }
}

// WithToday sets the day used for the initial day filter.
func WithToday(now time.Time) Option {
	return func(d *Dashboard) { d.criteria = appointments.Criteria{Day: appointments.Day(now.Weekday())} }
}

// New builds a dashboard whose initial filter shows today's weekday.
func New(api API, sessions Sessions, notifier notify.Notifier, logger *logging.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = logging.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	d := &Dashboard{
		api:      api,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		list:     []appointments.Appointment{},
		criteria: appointments.Criteria{Day: appointments.Day(time.Now().Weekday())},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load refetches the list. On failure the previous list is kept.
func (d *Dashboard) Load(ctx context.Context) error {
	list, err := d.api.ListAppointments(ctx)
	if err != nil {
		return d.fail(ctx, err, "Erro ao carregar agendamentos")
	}
	d.mu.Lock()
	d.list = list
	d.mu.Unlock()
	if d.onChange != nil {
		d.onChange(d.View())
	}
	return nil
}

// All returns the unfiltered list.
func (d *Dashboard) All() []appointments.Appointment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]appointments.Appointment, len(d.list))
	copy(out, d.list)
	return out
}

// View returns the list filtered and sorted by the current criteria.
func (d *Dashboard) View() []appointments.Appointment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return appointments.Filter(d.list, d.criteria)
}

// Criteria returns the filter View applies.
func (d *Dashboard) Criteria() appointments.Criteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.criteria
}

// SetCriteria replaces the filter; the list itself is not refetched.
func (d *Dashboard) SetCriteria(c appointments.Criteria) {
	d.mu.Lock()
	d.criteria = c
	d.mu.Unlock()
}

// Confirm marks an appointment confirmed and refetches.
func (d *Dashboard) Confirm(ctx context.Context, id appointments.ID) error {
	return d.transition(ctx, id, appointments.ActionConfirm)
}

// Cancel marks an appointment cancelled and refetches.
func (d *Dashboard) Cancel(ctx context.Context, id appointments.ID) error {
	return d.transition(ctx, id, appointments.ActionCancel)
}

func (d *Dashboard) transition(ctx context.Context, id appointments.ID, action appointments.Action) error {
	owner, err := d.owner()
	if err != nil {
		return d.fail(ctx, err, "Erro ao atualizar status")
	}
	if _, err := d.api.SetStatus(ctx, owner.Email, id, action); err != nil {
		return d.fail(ctx, err, "Erro ao atualizar status")
	}
	d.notifier.Notify(notify.Success, fmt.Sprintf("Agendamento %s!", action.Target()))
	return d.Load(ctx)
}

// Reschedule moves an appointment; its status is left alone.
func (d *Dashboard) Reschedule(ctx context.Context, id appointments.ID, date, clock string) error {
	if _, err := schedule.Combine(date, clock); err != nil {
		return d.fail(ctx, apperr.Validation("data ou horário inválido"), "Erro ao reagendar")
	}
	owner, err := d.owner()
	if err != nil {
		return d.fail(ctx, err, "Erro ao reagendar")
	}
	if _, err := d.api.Reschedule(ctx, owner.Email, id, date, schedule.TrimClock(clock)); err != nil {
		return d.fail(ctx, err, "Erro ao reagendar")
	}
	d.notifier.Notify(notify.Success, "Agendamento reagendado!")
	return d.Load(ctx)
}

// Create books on behalf of a client. Name, phone, date and time are required.
func (d *Dashboard) Create(ctx context.Context, a bookingapi.NewAppointment) error {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "nome")
	}
	if strings.TrimSpace(a.Phone) == "" {
		missing = append(missing, "telefone")
	}
	if strings.TrimSpace(a.Date) == "" {
		missing = append(missing, "data")
	}
	if strings.TrimSpace(a.Time) == "" {
		missing = append(missing, "horário")
	}
	if len(missing) > 0 {
		return d.fail(ctx, apperr.Validation("preencha "+strings.Join(missing, ", ")), "Erro ao criar agendamento")
	}
	if _, err := schedule.Combine(a.Date, a.Time); err != nil {
		return d.fail(ctx, apperr.Validation("data ou horário inválido"), "Erro ao criar agendamento")
	}
	if strings.TrimSpace(a.Email) == "" {
		a.Email = appointments.NoEmail
	}
	a.Time = schedule.TrimClock(a.Time)

	if _, err := d.api.CreateAppointment(ctx, a); err != nil {
		if apperr.Classify(err) == apperr.KindTransport {
			return d.fail(ctx, err, "Erro de conexão")
		}
		return d.fail(ctx, err, "Erro ao criar agendamento")
	}
	d.notifier.Notify(notify.Success, "Agendamento criado com sucesso!")
	return d.Load(ctx)
}

// Profile loads the owner's business profile.
func (d *Dashboard) Profile(ctx context.Context) (*profile.Profile, error) {
	p, err := d.api.MyProfile(ctx)
	if errors.Is(err, bookingapi.ErrProfileNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, d.fail(ctx, err, "Erro ao carregar perfil")
	}
	return p, nil
}

// SaveProfile validates and stores the profile.
func (d *Dashboard) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if _, err := d.api.SaveProfile(ctx, p); err != nil {
		return d.fail(ctx, err, "Erro ao salvar perfil")
	}
	d.notifier.Notify(notify.Success, "Perfil salvo com sucesso!")
	return nil
}

// ShareLink generates the public booking link for the signed-in owner.
func (d *Dashboard) ShareLink(ctx context.Context) (bookingapi.ShareLink, error) {
	owner, err := d.owner()
	if err != nil {
		return bookingapi.ShareLink{}, d.fail(ctx, err, "Erro ao gerar link")
	}
	link, err := d.api.ShareLink(ctx, owner.UserID)
	if err != nil {
		if apperr.Classify(err) == apperr.KindApplication {
			return bookingapi.ShareLink{}, d.fail(ctx, err, "Crie um perfil antes de gerar o link")
		}
		return bookingapi.ShareLink{}, d.fail(ctx, err, "Erro ao gerar link")
	}
	d.notifier.Notify(notify.Success, "Link de agendamento gerado!")
	return link, nil
}

// TrialBadge summarises the plan for the header. Failures hide the badge.
func (d *Dashboard) TrialBadge(ctx context.Context) premium.Badge {
	st, err := d.api.TrialStatus(ctx)
	if err != nil {
		d.logger.Warn("trial status unavailable", "error", err)
		if apperr.Classify(err) == apperr.KindUnauthorized {
			_ = d.fail(ctx, err, "")
		}
		return premium.Badge{Kind: premium.BadgeNone}
	}
	return st.Badge()
}

func (d *Dashboard) checkUsage(ctx context.Context) error {
	st, err := d.api.TrialStatus(ctx)
	if err != nil {
		return d.fail(ctx, err, "Erro ao verificar plano")
	}
	if !st.CheckUsage() {
		d.notifier.Notify(notify.Warning, "Limite diário de uso da IA atingido.")
		return ErrLimitReached
	}
	return nil
}

// Suggestions asks the AI for free slots when the plan allows it.
func (d *Dashboard) Suggestions(ctx context.Context) (string, error) {
	if err := d.checkUsage(ctx); err != nil {
		return "", err
	}
	text, err := d.api.SuggestTimes(ctx)
	if err != nil {
		return "", d.fail(ctx, err, "Erro ao sugerir horários")
	}
	return text, nil
}

// Stats returns the owner's statistics when the plan allows it.
func (d *Dashboard) Stats(ctx context.Context) (bookingapi.Stats, error) {
	if err := d.checkUsage(ctx); err != nil {
		return bookingapi.Stats{}, err
	}
	st, err := d.api.PersonalStats(ctx)
	if err != nil {
		return bookingapi.Stats{}, d.fail(ctx, err, "Erro ao carregar estatísticas")
	}
	return st, nil
}

// ExportCSV writes the current view as CSV.
func (d *Dashboard) ExportCSV(w io.Writer) error {
	if err := export.WriteCSV(w, d.View()); err != nil {
		d.notifier.Notify(notify.Error, "Erro ao exportar CSV")
		return err
	}
	d.notifier.Notify(notify.Success, "CSV exportado!")
	return nil
}

// Watch refetches the list on every change to table until ctx ends or the
// feed drops.
func (d *Dashboard) Watch(ctx context.Context, sub realtime.Subscriber, table string) error {
	events, err := sub.Subscribe(ctx, table)
	if err != nil {
		return fmt.Errorf("dashboard: watch %s: %w", table, err)
	}
	realtime.NewRefresher(d.Load, d.metrics, d.logger).Run(ctx, events)
	return ctx.Err()
}

// SignOut ends the session.
func (d *Dashboard) SignOut(ctx context.Context) error {
	if err := d.sessions.SignOut(ctx); err != nil {
		d.logger.Warn("sign out incomplete", "error", err)
	}
	d.mu.Lock()
	d.list = []appointments.Appointment{}
	d.mu.Unlock()
	d.notifier.Notify(notify.Info, "Logout realizado com sucesso")
	return nil
}

func (d *Dashboard) owner() (session.Session, error) {
	if d.sessions == nil {
		return session.Session{}, fmt.Errorf("dashboard: %w", apperr.ErrUnauthorized)
	}
	s, ok := d.sessions.Current()
	if !ok {
		return session.Session{}, fmt.Errorf("dashboard: %w", apperr.ErrUnauthorized)
	}
	return s, nil
}

// fail reports err to the user and returns it. An expired session signs the
// owner out; application and validation errors show their own message.
func (d *Dashboard) fail(ctx context.Context, err error, fallback string) error {
	switch apperr.Classify(err) {
	case apperr.KindUnauthorized:
		d.logger.Warn("session rejected, signing out", "error", err)
		if d.sessions != nil {
			if serr := d.sessions.SignOut(ctx); serr != nil {
				d.logger.Warn("sign out incomplete", "error", serr)
			}
		}
		d.notifier.Notify(notify.Warning, "Sessão expirada. Faça login novamente.")
	case apperr.KindApplication, apperr.KindValidation:
		d.notifier.Notify(notify.Error, apperr.UserMessage(err, fallback))
	default:
		d.logger.Error("request failed", "error", err)
		d.notifier.Notify(notify.Error, fallback)
	}
	return err
}
