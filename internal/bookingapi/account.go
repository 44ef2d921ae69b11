package bookingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/premium"
	"github.com/wolfman30/agenda/internal/profile"
)

// MyProfile loads the authenticated owner's profile. An owner without a
// profile yields ErrProfileNotFound.
func (c *Client) MyProfile(ctx context.Context) (*profile.Profile, error) {
	var res profileResult
	err := c.doJSON(ctx, "my_profile", bearer, http.MethodGet, "/api/meu-perfil", nil, &res)
	var apiErr *apperr.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get my profile: %w", err)
	}
	if res.Profile == nil {
		return nil, ErrProfileNotFound
	}
	return res.Profile, nil
}

// SaveProfile creates or replaces the owner's profile.
func (c *Client) SaveProfile(ctx context.Context, p *profile.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var res messageResult
	if err := c.doJSON(ctx, "save_profile", bearer, http.MethodPost, "/api/criar-perfil", p, &res); err != nil {
		return "", fmt.Errorf("save profile: %w", err)
	}
	_, msg := res.outcome()
	return msg, nil
}

type shareLinkResult struct {
	envelope
	Link      string `json:"link"`
	URL       string `json:"url"`
	QRCode    string `json:"qrCode"`
	QRCodeURL string `json:"qrCodeUrl"`
}

// ShareLink asks the API for the owner's public booking link.
func (c *Client) ShareLink(ctx context.Context, ownerID string) (ShareLink, error) {
	path := fmt.Sprintf("/gerar-link/%s", url.PathEscape(ownerID))

	var res shareLinkResult
	if err := c.doJSON(ctx, "share_link", bearer, http.MethodGet, path, nil, &res); err != nil {
		return ShareLink{}, fmt.Errorf("generate share link: %w", err)
	}
	link := ShareLink{Link: firstNonEmpty(res.Link, res.URL), QRCodeURL: firstNonEmpty(res.QRCodeURL, res.QRCode)}
	if link.Link == "" {
		return ShareLink{}, &apperr.TransportError{Op: "share_link", Err: errors.New("response without link")}
	}
	return link, nil
}

type trialResult struct {
	envelope
	premium.Status
	Nested *premium.Status `json:"status"`
}

// TrialStatus reads the trial/premium status. Older deployments answer with
// the fields at the top level, newer ones nest them under "status".
func (c *Client) TrialStatus(ctx context.Context) (premium.Status, error) {
	var res trialResult
	if err := c.doJSON(ctx, "trial_status", bearer, http.MethodGet, "/api/trial-status", nil, &res); err != nil {
		return premium.Status{}, fmt.Errorf("get trial status: %w", err)
	}
	if res.Nested != nil {
		return *res.Nested, nil
	}
	return res.Status, nil
}

type suggestionsResult struct {
	envelope
	Suggestions json.RawMessage `json:"sugestoes"`
}

// SuggestTimes returns the AI generated free-slot suggestions as text.
func (c *Client) SuggestTimes(ctx context.Context) (string, error) {
	var res suggestionsResult
	if err := c.doJSON(ctx, "suggest_times", bearer, http.MethodGet, "/api/sugerir-horarios", nil, &res); err != nil {
		return "", fmt.Errorf("suggest times: %w", err)
	}
	var text string
	if err := json.Unmarshal(res.Suggestions, &text); err == nil {
		return text, nil
	}
	return string(res.Suggestions), nil
}

type statsResult struct {
	envelope
	Stats struct {
		Total          int        `json:"total"`
		ThisMonth      int        `json:"este_mes"`
		Confirmed      int        `json:"confirmados"`
		AttendanceRate flexString `json:"taxa_comparecimento"`
	} `json:"estatisticas"`
}

// PersonalStats returns the owner's booking statistics.
func (c *Client) PersonalStats(ctx context.Context) (Stats, error) {
	var res statsResult
	if err := c.doJSON(ctx, "personal_stats", bearer, http.MethodGet, "/api/estatisticas-pessoais", nil, &res); err != nil {
		return Stats{}, fmt.Errorf("personal stats: %w", err)
	}
	return Stats{
		Total:          res.Stats.Total,
		ThisMonth:      res.Stats.ThisMonth,
		Confirmed:      res.Stats.Confirmed,
		AttendanceRate: string(res.Stats.AttendanceRate),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
