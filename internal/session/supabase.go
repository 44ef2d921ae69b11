package session

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"

	"github.com/wolfman30/agenda/internal/apperr"
)

// SupabaseAuthenticator signs owners in against Supabase auth.
type SupabaseAuthenticator struct {
	client *supa.Client
}

// NewSupabaseAuthenticator creates the Supabase client for url and the
// project's anon key.
func NewSupabaseAuthenticator(url, anonKey string) (*SupabaseAuthenticator, error) {
	if url == "" || anonKey == "" {
		return nil, fmt.Errorf("session: supabase url and anon key are required")
	}
	client, err := supa.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("session: create supabase client: %w", err)
	}
	return &SupabaseAuthenticator{client: client}, nil
}

func (a *SupabaseAuthenticator) SignIn(_ context.Context, email, password string) (Session, error) {
	s, err := a.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return Session{}, fmt.Errorf("supabase sign in: %w", providerError(err))
	}
	a.client.UpdateAuthSession(s)
	return fromSupabase(s), nil
}

func (a *SupabaseAuthenticator) Refresh(_ context.Context, refreshToken string) (Session, error) {
	s, err := a.client.RefreshToken(refreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("supabase refresh: %w", providerError(err))
	}
	a.client.UpdateAuthSession(s)
	return fromSupabase(s), nil
}

func (a *SupabaseAuthenticator) SignOut(_ context.Context, accessToken string) error {
	if err := a.client.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("supabase logout: %w", err)
	}
	return nil
}

func fromSupabase(s types.Session) Session {
	out := Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.User.ID.String(),
		Email:        s.User.Email,
	}
	if s.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	}
	return out
}

// providerError marks 4xx answers from the auth endpoint as rejections. The
// client reports them as "response status code N: body"; anything else is a
// transport failure and is returned as is.
func providerError(err error) error {
	var status int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &status); scanErr != nil {
		return err
	}
	if status >= 400 && status < 500 {
		return fmt.Errorf("%w: %w", err, apperr.ErrUnauthorized)
	}
	return err
}
