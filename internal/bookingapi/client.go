// Package bookingapi is a typed client for the remote booking API. Every
// endpoint decodes its JSON envelope once into an explicit result type and
// reports failures with the apperr taxonomy.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/observability/metrics"
	"github.com/wolfman30/agenda/pkg/logging"
)

const (
	defaultBaseURL = "https://agendamento-ynxr.onrender.com"
	defaultTimeout = 15 * time.Second
	maxLoggedBody  = 300
)

var tracer = otel.Tracer("agenda.internal.bookingapi")

// Client wraps the booking API endpoints used by the owner dashboard and the
// public booking page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
	metrics    *metrics.ClientMetrics
	logger     *logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource supplies bearer tokens for authenticated endpoints.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a booking API client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type authMode int

const (
	public authMode = iota
	bearer
)

// result is implemented by every response shape through the embedded envelope.
type result interface {
	outcome() (ok bool, msg string)
}

// envelope is the {success, msg} pair every endpoint returns. A missing
// success flag on a 2xx response counts as success.
type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Msg     string `json:"msg,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *envelope) outcome() (bool, string) {
	msg := e.Msg
	if msg == "" {
		msg = e.Message
	}
	if e.Success == nil {
		return true, msg
	}
	return *e.Success, msg
}

// messageResult is the shape of endpoints that only answer with a message.
type messageResult struct {
	envelope
}

func (c *Client) doJSON(ctx context.Context, op string, mode authMode, method, path string, body any, out result) error {
	ctx, span := tracer.Start(ctx, "bookingapi."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("agenda.endpoint", op),
	))
	defer span.End()

	started := time.Now()
	err := c.roundTrip(ctx, op, mode, method, path, body, out)
	kind := apperr.Classify(err)
	c.metrics.ObserveRequest(op, kind.String(), time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op string, mode authMode, method, path string, body any, out result) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mode == bearer {
		if c.tokens == nil {
			return fmt.Errorf("%s: no session: %w", op, apperr.ErrUnauthorized)
		}
		tok, err := c.tokens.Token()
		if err != nil {
			if apperr.Classify(err) == apperr.KindUnauthorized {
				return fmt.Errorf("%s: token: %w", op, err)
			}
			return &apperr.TransportError{Op: op, Err: fmt.Errorf("token: %w", err)}
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("booking API rejected token", "endpoint", op)
		return fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(respBody, &env)
		_, msg := env.outcome()
		c.logger.Warn("booking API non-2xx response", "status", resp.StatusCode, "endpoint", op, "body", truncate(respBody))
		return &apperr.APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return &apperr.TransportError{Op: op, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &apperr.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if ok, msg := out.outcome(); !ok {
		return &apperr.APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxLoggedBody {
		s = s[:maxLoggedBody]
	}
	return s
}
