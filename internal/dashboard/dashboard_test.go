package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/bookingapi"
	"github.com/wolfman30/agenda/internal/notify"
	"github.com/wolfman30/agenda/internal/premium"
	"github.com/wolfman30/agenda/internal/profile"
	"github.com/wolfman30/agenda/internal/realtime"
	"github.com/wolfman30/agenda/internal/session"
	"github.com/wolfman30/agenda/pkg/logging"
)

type fakeAPI struct {
	mu sync.Mutex

	list    []appointments.Appointment
	listErr error
	lists   int

	actionErr error
	statusIDs []string
	created   []bookingapi.NewAppointment
	moved     []string

	link    bookingapi.ShareLink
	linkErr error
	trial   premium.Status
	stats   bookingapi.Stats
}

func (f *fakeAPI) ListAppointments(context.Context) ([]appointments.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]appointments.Appointment(nil), f.list...), nil
}

func (f *fakeAPI) CreateAppointment(_ context.Context, a bookingapi.NewAppointment) (string, error) {
	if f.actionErr != nil {
		return "", f.actionErr
	}
	f.created = append(f.created, a)
	return "ok", nil
}

func (f *fakeAPI) SetStatus(_ context.Context, email string, id appointments.ID, action appointments.Action) (string, error) {
	if f.actionErr != nil {
		return "", f.actionErr
	}
	f.statusIDs = append(f.statusIDs, email+"/"+string(action)+"/"+string(id))
	return "ok", nil
}

func (f *fakeAPI) Reschedule(_ context.Context, email string, id appointments.ID, date, clock string) (string, error) {
	if f.actionErr != nil {
		return "", f.actionErr
	}
	f.moved = append(f.moved, string(id)+"@"+date+" "+clock)
	return "ok", nil
}

func (f *fakeAPI) MyProfile(context.Context) (*profile.Profile, error) {
	return nil, bookingapi.ErrProfileNotFound
}

func (f *fakeAPI) SaveProfile(_ context.Context, p *profile.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return "ok", nil
}

func (f *fakeAPI) ShareLink(context.Context, string) (bookingapi.ShareLink, error) {
	return f.link, f.linkErr
}

func (f *fakeAPI) TrialStatus(context.Context) (premium.Status, error) { return f.trial, nil }

func (f *fakeAPI) SuggestTimes(context.Context) (string, error) { return "Terça 10:00", nil }

func (f *fakeAPI) PersonalStats(context.Context) (bookingapi.Stats, error) { return f.stats, nil }

type fakeSessions struct {
	current  *session.Session
	signOuts int
}

func (f *fakeSessions) Current() (session.Session, bool) {
	if f.current == nil {
		return session.Session{}, false
	}
	return *f.current, true
}

func (f *fakeSessions) SignOut(context.Context) error {
	f.signOuts++
	f.current = nil
	return nil
}

// 2025-03-11 is a Tuesday.
var tuesday = time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local)

func sample() []appointments.Appointment {
	return []appointments.Appointment{
		{ID: "1", Name: "Bia", Date: "2025-03-11", Time: "14:00", Status: appointments.StatusPending},
		{ID: "2", Name: "Ana", Date: "2025-03-11", Time: "09:00", Status: appointments.StatusConfirmed},
		{ID: "3", Name: "Caio", Date: "2025-03-12", Time: "10:00", Status: appointments.StatusPending},
	}
}

func newDashboard(api *fakeAPI) (*Dashboard, *fakeSessions, *notify.Recorder) {
	sessions := &fakeSessions{current: &session.Session{AccessToken: "a", UserID: "owner-1", Email: "dono@x.com"}}
	rec := &notify.Recorder{}
	return New(api, sessions, rec, logging.Discard(), WithToday(tuesday)), sessions, rec
}

func lastToast(t *testing.T, rec *notify.Recorder) notify.Toast {
	t.Helper()
	toast, ok := rec.Last()
	require.True(t, ok, "expected a toast")
	return toast
}

func names(list []appointments.Appointment) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name
	}
	return out
}

func TestDashboard_DefaultFilterIsToday(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, _, _ := newDashboard(api)
	require.NoError(t, d.Load(context.Background()))

	assert.Equal(t, []string{"Ana", "Bia"}, names(d.View()))
	assert.Len(t, d.All(), 3)

	d.SetCriteria(appointments.Criteria{})
	assert.Equal(t, []string{"Ana", "Bia", "Caio"}, names(d.View()))
}

func TestDashboard_OnChange(t *testing.T) {
	var seen [][]string
	api := &fakeAPI{list: sample()}
	d := New(api, &fakeSessions{}, &notify.Recorder{}, logging.Discard(), WithToday(tuesday),
		WithOnChange(func(view []appointments.Appointment) { seen = append(seen, names(view)) }))

	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, [][]string{{"Ana", "Bia"}}, seen)

	api.listErr = errors.New("boom")
	_ = d.Load(context.Background())
	assert.Len(t, seen, 1)
}

func TestDashboard_LoadFailureKeepsPriorList(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, sessions, rec := newDashboard(api)
	require.NoError(t, d.Load(context.Background()))

	api.listErr = &apperr.TransportError{Op: "list", Err: errors.New("timeout")}
	err := d.Load(context.Background())
	assert.Equal(t, apperr.KindTransport, apperr.Classify(err))
	assert.Len(t, d.All(), 3)
	assert.Equal(t, notify.Toast{Level: notify.Error, Message: "Erro ao carregar agendamentos"}, lastToast(t, rec))
	assert.Equal(t, 0, sessions.signOuts)
}

func TestDashboard_UnauthorizedSignsOut(t *testing.T) {
	api := &fakeAPI{listErr: apperr.ErrUnauthorized}
	d, sessions, rec := newDashboard(api)

	err := d.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 1, sessions.signOuts)
	assert.Equal(t, notify.Warning, lastToast(t, rec).Level)
}

func TestDashboard_ConfirmAndCancel(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, _, rec := newDashboard(api)

	require.NoError(t, d.Confirm(context.Background(), "1"))
	assert.Equal(t, "Agendamento confirmado!", lastToast(t, rec).Message)
	require.NoError(t, d.Cancel(context.Background(), "3"))
	assert.Equal(t, "Agendamento cancelado!", lastToast(t, rec).Message)

	assert.Equal(t, []string{"dono@x.com/confirmar/1", "dono@x.com/cancelar/3"}, api.statusIDs)
	assert.Equal(t, 2, api.lists, "every transition refetches")
}

func TestDashboard_ApplicationErrorShowsServerMessage(t *testing.T) {
	api := &fakeAPI{actionErr: &apperr.APIError{Op: "set_status", StatusCode: 400, Message: "Agendamento já cancelado"}}
	d, _, rec := newDashboard(api)

	err := d.Cancel(context.Background(), "1")
	assert.Error(t, err)
	assert.Equal(t, notify.Toast{Level: notify.Error, Message: "Agendamento já cancelado"}, lastToast(t, rec))
	assert.Equal(t, 0, api.lists)
}

func TestDashboard_ActionsWithoutSession(t *testing.T) {
	api := &fakeAPI{}
	d, sessions, _ := newDashboard(api)
	sessions.current = nil

	err := d.Confirm(context.Background(), "1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, api.statusIDs)
}

func TestDashboard_Reschedule(t *testing.T) {
	api := &fakeAPI{}
	d, _, rec := newDashboard(api)

	require.NoError(t, d.Reschedule(context.Background(), "2", "2025-03-20", "15:00:00"))
	assert.Equal(t, []string{"2@2025-03-20 15:00"}, api.moved)
	assert.Equal(t, "Agendamento reagendado!", lastToast(t, rec).Message)

	err := d.Reschedule(context.Background(), "2", "20/03/2025", "15:00")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, api.moved, 1)
}

func TestDashboard_CreateValidatesAndDefaultsEmail(t *testing.T) {
	api := &fakeAPI{}
	d, _, rec := newDashboard(api)

	err := d.Create(context.Background(), bookingapi.NewAppointment{Name: "Ana"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "preencha telefone, data, horário", lastToast(t, rec).Message)
	assert.Empty(t, api.created)

	require.NoError(t, d.Create(context.Background(), bookingapi.NewAppointment{
		Name: "Ana", Phone: "11987654321", Date: "2025-03-11", Time: "10:00",
	}))
	require.Len(t, api.created, 1)
	assert.Equal(t, appointments.NoEmail, api.created[0].Email)
	assert.Equal(t, "Agendamento criado com sucesso!", lastToast(t, rec).Message)
}

func TestDashboard_CreateTransportError(t *testing.T) {
	api := &fakeAPI{actionErr: &apperr.TransportError{Op: "create", Err: errors.New("dial")}}
	d, _, rec := newDashboard(api)

	err := d.Create(context.Background(), bookingapi.NewAppointment{
		Name: "Ana", Phone: "11987654321", Date: "2025-03-11", Time: "10:00",
	})
	assert.Error(t, err)
	assert.Equal(t, "Erro de conexão", lastToast(t, rec).Message)
}

func TestDashboard_ShareLink(t *testing.T) {
	api := &fakeAPI{link: bookingapi.ShareLink{Link: "https://app/agendar/owner-1/t"}}
	d, _, rec := newDashboard(api)

	link, err := d.ShareLink(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://app/agendar/owner-1/t", link.Link)

	api.linkErr = &apperr.APIError{Op: "share_link", StatusCode: 404}
	_, err = d.ShareLink(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Crie um perfil antes de gerar o link", lastToast(t, rec).Message)

	api.linkErr = &apperr.TransportError{Op: "share_link", Err: errors.New("dial")}
	_, err = d.ShareLink(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Erro ao gerar link", lastToast(t, rec).Message)
}

func TestDashboard_AIFeaturesAreGated(t *testing.T) {
	api := &fakeAPI{trial: premium.Status{HasTrial: true, DailyUsagesLeft: 0}}
	d, _, rec := newDashboard(api)

	_, err := d.Suggestions(context.Background())
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Equal(t, notify.Warning, lastToast(t, rec).Level)

	api.trial.DailyUsagesLeft = 2
	text, err := d.Suggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Terça 10:00", text)

	api.stats = bookingapi.Stats{Total: 3}
	st, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)

	badge := d.TrialBadge(context.Background())
	assert.Equal(t, premium.LevelLow, badge.Level)
}

func TestDashboard_ProfileNotFoundIsSilent(t *testing.T) {
	d, _, rec := newDashboard(&fakeAPI{})
	_, err := d.Profile(context.Background())
	assert.ErrorIs(t, err, bookingapi.ErrProfileNotFound)
	_, ok := rec.Last()
	assert.False(t, ok)

	err = d.SaveProfile(context.Background(), &profile.Profile{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDashboard_ExportCSVUsesView(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, _, _ := newDashboard(api)
	require.NoError(t, d.Load(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, d.ExportCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Ana")
	assert.Contains(t, lines[2], "Bia")
}

type chanSubscriber struct {
	events chan realtime.Event
	table  string
}

func (c *chanSubscriber) Subscribe(_ context.Context, table string) (<-chan realtime.Event, error) {
	c.table = table
	return c.events, nil
}

func TestDashboard_WatchRefetchesOnChange(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, _, _ := newDashboard(api)
	sub := &chanSubscriber{events: make(chan realtime.Event, 2)}
	sub.events <- realtime.Event{Table: "agendamentos", Type: "INSERT"}
	sub.events <- realtime.Event{Table: "agendamentos", Type: "UPDATE"}
	close(sub.events)

	err := d.Watch(context.Background(), sub, "agendamentos")
	assert.NoError(t, err)
	assert.Equal(t, "agendamentos", sub.table)
	api.mu.Lock()
	assert.Equal(t, 2, api.lists)
	api.mu.Unlock()
	assert.Len(t, d.All(), 3)
}

func TestDashboard_SignOutClearsList(t *testing.T) {
	api := &fakeAPI{list: sample()}
	d, sessions, rec := newDashboard(api)
	require.NoError(t, d.Load(context.Background()))

	require.NoError(t, d.SignOut(context.Background()))
	assert.Empty(t, d.All())
	assert.Equal(t, 1, sessions.signOuts)
	assert.Equal(t, "Logout realizado com sucesso", lastToast(t, rec).Message)
}

type outageAuth struct{ refreshErr error }

func (a outageAuth) SignIn(context.Context, string, string) (session.Session, error) {
	return session.Session{}, errors.New("not used")
}

func (a outageAuth) Refresh(context.Context, string) (session.Session, error) {
	return session.Session{}, a.refreshErr
}

func (a outageAuth) SignOut(context.Context, string) error { return nil }

func TestDashboard_RefreshOutageKeepsSession(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"agendamentos":[]}`))
	}))
	t.Cleanup(srv.Close)

	sessions := session.NewManager(outageAuth{refreshErr: errors.New("dial tcp: connection refused")}, nil, logging.Discard())
	require.NoError(t, sessions.Adopt(context.Background(), session.Session{
		AccessToken:  "stale",
		RefreshToken: "r1",
		UserID:       "owner-1",
		Email:        "dono@x.com",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))
	client := bookingapi.NewClient(srv.URL, logging.Discard(), bookingapi.WithTokenSource(sessions))
	rec := &notify.Recorder{}
	d := New(client, sessions, rec, logging.Discard(), WithToday(tuesday))

	err := d.Load(context.Background())
	assert.Equal(t, apperr.KindTransport, apperr.Classify(err))
	_, signedIn := sessions.Current()
	assert.True(t, signedIn)
	assert.Equal(t, notify.Toast{Level: notify.Error, Message: "Erro ao carregar agendamentos"}, lastToast(t, rec))
	assert.Zero(t, hits.Load())

	rejected := session.NewManager(outageAuth{refreshErr: fmt.Errorf("invalid_grant: %w", apperr.ErrUnauthorized)}, nil, logging.Discard())
	require.NoError(t, rejected.Adopt(context.Background(), session.Session{AccessToken: "stale", RefreshToken: "r1", ExpiresAt: time.Now().Add(-time.Hour)}))
	d = New(bookingapi.NewClient(srv.URL, logging.Discard(), bookingapi.WithTokenSource(rejected)), rejected, rec, logging.Discard())

	err = d.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, signedIn = rejected.Current()
	assert.False(t, signedIn)
	assert.Equal(t, notify.Warning, lastToast(t, rec).Level)
}
