// Package session holds the owner's authenticated session: the tokens issued
// by Supabase auth, how they are refreshed and where they are persisted.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// expiryLeeway refreshes a little before the token actually expires.
const expiryLeeway = 30 * time.Second

// ErrNoSession is returned when nobody is signed in.
var ErrNoSession = errors.New("session: not signed in")

// Session is the signed-in owner.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

// Expired reports whether the access token must be refreshed before use.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(expiryLeeway).Before(s.ExpiresAt)
}

// Token converts the session into an oauth2 bearer token.
func (s Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.ExpiresAt,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// FromAccessToken builds a session from a Supabase access token. The claims
// are decoded without verifying the signature; the booking API verifies it.
func FromAccessToken(accessToken, refreshToken string) (Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Session{}, fmt.Errorf("session: empty access token")
	}

	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return Session{}, fmt.Errorf("session: parse access token: %w", err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("session: access token without subject")
	}

	s := Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
