package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/oauth2"

	"github.com/wolfman30/agenda/pkg/logging"
)

const (
	defaultHeartbeat = 30 * time.Second
	defaultOrigin    = "http://localhost"
	protocolVersion  = "1.0.0"
)

// frame is a Phoenix channel message.
type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type joinPayload struct {
	Config struct {
		PostgresChanges []changeFilter `json:"postgres_changes"`
	} `json:"config"`
	AccessToken string `json:"access_token,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Table  string          `json:"table"`
		Type   string          `json:"type"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

// PhoenixSubscriber listens to Supabase realtime postgres_changes over a
// websocket.
type PhoenixSubscriber struct {
	endpoint  string
	apiKey    string
	origin    string
	tokens    oauth2.TokenSource
	heartbeat time.Duration
	logger    *logging.Logger
	ref       atomic.Int64
}

// PhoenixOption customises a PhoenixSubscriber.
type PhoenixOption func(*PhoenixSubscriber)

// WithAccessToken joins the channel as the signed-in owner so row level
// security applies.
func WithAccessToken(ts oauth2.TokenSource) PhoenixOption {
	return func(p *PhoenixSubscriber) { p.tokens = ts }
}

// WithHeartbeat overrides the 30s heartbeat interval.
func WithHeartbeat(d time.Duration) PhoenixOption {
	return func(p *PhoenixSubscriber) {
		if d > 0 {
			p.heartbeat = d
		}
	}
}

// NewPhoenixSubscriber targets endpoint, e.g. wss://proj.supabase.co/realtime/v1/websocket.
func NewPhoenixSubscriber(endpoint, apiKey string, logger *logging.Logger, opts ...PhoenixOption) *PhoenixSubscriber {
	if logger == nil {
		logger = logging.Default()
	}
	p := &PhoenixSubscriber{
		endpoint:  endpoint,
		apiKey:    apiKey,
		origin:    defaultOrigin,
		heartbeat: defaultHeartbeat,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PhoenixSubscriber) nextRef() string {
	return strconv.FormatInt(p.ref.Add(1), 10)
}

func (p *PhoenixSubscriber) dialURL() (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("realtime: parse endpoint: %w", err)
	}
	q := u.Query()
	if p.apiKey != "" {
		q.Set("apikey", p.apiKey)
	}
	q.Set("vsn", protocolVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe dials the socket and joins realtime:public:{table}.
func (p *PhoenixSubscriber) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	target, err := p.dialURL()
	if err != nil {
		return nil, err
	}
	cfg, err := websocket.NewConfig(target, p.origin)
	if err != nil {
		return nil, fmt.Errorf("realtime: websocket config: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}

	topic := "realtime:public:" + table
	join := joinPayload{}
	join.Config.PostgresChanges = []changeFilter{{Event: "*", Schema: "public", Table: table}}
	if p.tokens != nil {
		if tok, err := p.tokens.Token(); err == nil {
			join.AccessToken = tok.AccessToken
		}
	}
	payload, err := json.Marshal(join)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: marshal join: %w", err)
	}
	if err := websocket.JSON.Send(conn, frame{Topic: topic, Event: "phx_join", Payload: payload, Ref: p.nextRef()}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: join %s: %w", topic, err)
	}

	events := make(chan Event, eventBuffer)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go p.heartbeatLoop(ctx, conn, done)
	go func() {
		defer close(events)
		defer close(done)
		p.readLoop(ctx, conn, topic, table, events)
	}()

	p.logger.Info("realtime channel joining", "topic", topic)
	return events, nil
}

func (p *PhoenixSubscriber) heartbeatLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(p.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			hb := frame{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: p.nextRef()}
			if err := websocket.JSON.Send(conn, hb); err != nil {
				p.logger.Warn("realtime heartbeat failed", "error", err)
				return
			}
		}
	}
}

func (p *PhoenixSubscriber) readLoop(ctx context.Context, conn *websocket.Conn, topic, table string, events chan<- Event) {
	for {
		var msg frame
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("realtime connection dropped", "topic", topic, "error", err)
			}
			return
		}
		if msg.Topic != topic {
			continue
		}

		switch msg.Event {
		case "phx_reply":
			var reply replyPayload
			if err := json.Unmarshal(msg.Payload, &reply); err == nil && reply.Status != "ok" {
				p.logger.Error("realtime join rejected", "topic", topic, "status", reply.Status, "response", string(reply.Response))
				return
			}
		case "phx_error", "phx_close":
			p.logger.Warn("realtime channel closed", "topic", topic, "event", msg.Event)
			return
		case "postgres_changes":
			var change changePayload
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				p.logger.Warn("realtime payload undecodable", "error", err)
				continue
			}
			ev := Event{Table: change.Data.Table, Type: change.Data.Type, Record: change.Data.Record, ReceivedAt: time.Now()}
			if ev.Table == "" {
				ev.Table = table
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
