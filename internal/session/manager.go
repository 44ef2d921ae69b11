package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/pkg/logging"
)

// Authenticator talks to the identity provider. Implementations wrap
// apperr.ErrUnauthorized when the provider rejects the credentials or the
// refresh token; network failures are returned unwrapped.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ChangeKind says what happened to the session.
type ChangeKind string

const (
	SignedIn  ChangeKind = "signed_in"
	Refreshed ChangeKind = "refreshed"
	SignedOut ChangeKind = "signed_out"
)

// Change is delivered to subscribers after every transition.
type Change struct {
	Kind    ChangeKind
	Session Session
}

// Manager owns the current session. Screens receive it explicitly instead of
// reaching for a global client.
type Manager struct {
	auth   Authenticator
	store  Store
	logger *logging.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Session
	subs    map[int]func(Change)
	nextSub int
}

// NewManager builds a Manager. store may be nil for an in-memory session.
func NewManager(auth Authenticator, store Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		auth:   auth,
		store:  store,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]func(Change)),
	}
}

// Restore loads a previously persisted session. A missing one is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	s, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: restore: %w", err)
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

// Current returns the signed-in session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// SignIn authenticates with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	if m.auth == nil {
		return Session{}, fmt.Errorf("session: sign in: no authenticator configured")
	}
	s, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("session: sign in: %w", err)
	}
	if err := m.set(ctx, s, SignedIn); err != nil {
		return Session{}, err
	}
	m.logger.Info("signed in", "user_id", s.UserID)
	return s, nil
}

// Adopt installs a session obtained elsewhere, e.g. an OAuth redirect.
func (m *Manager) Adopt(ctx context.Context, s Session) error {
	if s.AccessToken == "" {
		return fmt.Errorf("session: adopt: empty access token")
	}
	return m.set(ctx, s, SignedIn)
}

// Refresh exchanges the refresh token for a new session.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	cur, ok := m.Current()
	if !ok {
		return Session{}, ErrNoSession
	}
	if m.auth == nil || cur.RefreshToken == "" {
		return Session{}, fmt.Errorf("session: refresh: no refresh token: %w", apperr.ErrUnauthorized)
	}
	s, err := m.auth.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("session: refresh: %w", err)
	}
	if err := m.set(ctx, s, Refreshed); err != nil {
		return Session{}, err
	}
	return s, nil
}

// SignOut drops the session locally even when the provider call fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()
	if cur == nil {
		return nil
	}

	var errs []error
	if m.auth != nil {
		if err := m.auth.SignOut(ctx, cur.AccessToken); err != nil {
			m.logger.Warn("provider sign out failed", "error", err)
			errs = append(errs, fmt.Errorf("session: provider sign out: %w", err))
		}
	}
	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session: clear store: %w", err))
		}
	}
	m.publish(Change{Kind: SignedOut, Session: *cur})
	return errors.Join(errs...)
}

// Subscribe registers fn for session changes and returns its unsubscribe func.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) set(ctx context.Context, s Session, kind ChangeKind) error {
	if m.store != nil {
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("session: persist: %w", err)
		}
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	m.publish(Change{Kind: kind, Session: s})
	return nil
}

func (m *Manager) publish(c Change) {
	m.mu.Lock()
	fns := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
