package bookingapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wolfman30/agenda/internal/profile"
)

// ErrProfileNotFound is returned when the owner has not created a profile yet.
var ErrProfileNotFound = errors.New("bookingapi: profile not found")

type profileResult struct {
	envelope
	Profile *profile.Profile `json:"perfil"`
}

// PublicProfile loads the business profile shown on the public booking page.
func (c *Client) PublicProfile(ctx context.Context, ownerID string) (*profile.Profile, error) {
	path := fmt.Sprintf("/api/perfil-publico/%s", url.PathEscape(ownerID))

	var res profileResult
	if err := c.doJSON(ctx, "public_profile", public, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("get public profile: %w", err)
	}
	if res.Profile == nil {
		return nil, ErrProfileNotFound
	}
	return res.Profile, nil
}

type timesResult struct {
	envelope
	Times []string `json:"horariosDisponiveis"`
}

// AvailableTimes lists the free HH:MM slots for a date (YYYY-MM-DD).
func (c *Client) AvailableTimes(ctx context.Context, ownerID, date string) ([]string, error) {
	q := url.Values{}
	q.Set("data", date)
	path := fmt.Sprintf("/api/horarios-disponiveis/%s?%s", url.PathEscape(ownerID), q.Encode())

	var res timesResult
	if err := c.doJSON(ctx, "available_times", public, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("get available times: %w", err)
	}
	return trimTimes(res.Times), nil
}

// SubmitPublicAppointment creates a pending appointment from the public page
// and returns the confirmation message.
func (c *Client) SubmitPublicAppointment(ctx context.Context, req PublicRequest) (string, error) {
	var res messageResult
	if err := c.doJSON(ctx, "public_appointment", public, http.MethodPost, "/agendamento-publico", req, &res); err != nil {
		return "", fmt.Errorf("submit public appointment: %w", err)
	}
	_, msg := res.outcome()
	return msg, nil
}
