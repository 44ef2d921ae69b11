package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/wolfman30/agenda/internal/apperr"
)

var _ oauth2.TokenSource = (*Manager)(nil)

// Token implements oauth2.TokenSource, refreshing an expired session first.
func (m *Manager) Token() (*oauth2.Token, error) {
	return m.token(context.Background())
}

// TokenSource returns a source whose refreshes run under ctx.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return ctxTokenSource{ctx: ctx, m: m}
}

type ctxTokenSource struct {
	ctx context.Context
	m   *Manager
}

func (s ctxTokenSource) Token() (*oauth2.Token, error) {
	return s.m.token(s.ctx)
}

// token fails with apperr.ErrUnauthorized only when there is no usable
// session or the provider rejected the refresh token. Other refresh failures
// keep their cause so callers can tell an outage from an expired login.
func (m *Manager) token(ctx context.Context) (*oauth2.Token, error) {
	cur, ok := m.Current()
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, apperr.ErrUnauthorized)
	}
	if !cur.Expired(m.now()) {
		return cur.Token(), nil
	}

	refreshed, err := m.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: token: %w", err)
	}
	return refreshed.Token(), nil
}
