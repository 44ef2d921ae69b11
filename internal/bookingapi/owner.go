package bookingapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/appointments"
)

type listResult struct {
	envelope
	Appointments []appointments.Appointment `json:"agendamentos"`
}

// ListAppointments returns every appointment of the authenticated owner.
func (c *Client) ListAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	var res listResult
	if err := c.doJSON(ctx, "list_appointments", bearer, http.MethodGet, "/agendamentos", nil, &res); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if res.Appointments == nil {
		return []appointments.Appointment{}, nil
	}
	return res.Appointments, nil
}

// CreateAppointment books on behalf of a client from the owner dashboard.
func (c *Client) CreateAppointment(ctx context.Context, a NewAppointment) (string, error) {
	var res messageResult
	if err := c.doJSON(ctx, "create_appointment", bearer, http.MethodPost, "/agendar", a, &res); err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	_, msg := res.outcome()
	return msg, nil
}

// SetStatus confirms or cancels an appointment. ownerEmail is the
// authenticated owner's email, which the API expects in the path.
func (c *Client) SetStatus(ctx context.Context, ownerEmail string, id appointments.ID, action appointments.Action) (string, error) {
	if !action.Valid() {
		return "", apperr.Validation(fmt.Sprintf("ação desconhecida %q", action))
	}
	path := fmt.Sprintf("/agendamentos/%s/%s/%s", url.PathEscape(ownerEmail), action, url.PathEscape(string(id)))

	var res messageResult
	if err := c.doJSON(ctx, "set_status_"+string(action), bearer, http.MethodPost, path, nil, &res); err != nil {
		return "", fmt.Errorf("%s appointment %s: %w", action, id, err)
	}
	_, msg := res.outcome()
	return msg, nil
}

// Reschedule moves an appointment to a new date and time without touching its status.
func (c *Client) Reschedule(ctx context.Context, ownerEmail string, id appointments.ID, date, clock string) (string, error) {
	path := fmt.Sprintf("/agendamentos/%s/reagendar/%s", url.PathEscape(ownerEmail), url.PathEscape(string(id)))

	var res messageResult
	body := rescheduleRequest{NewDate: date, NewTime: clock}
	if err := c.doJSON(ctx, "reschedule", bearer, http.MethodPost, path, body, &res); err != nil {
		return "", fmt.Errorf("reschedule appointment %s: %w", id, err)
	}
	_, msg := res.outcome()
	return msg, nil
}
