package session

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthorizeURL is where the browser goes to start an OAuth sign in with
// provider (e.g. "google"). Supabase sends the user back to redirectTo with
// the tokens in the URL fragment.
func AuthorizeURL(supabaseURL, provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/authorize?" + q.Encode()
}

// ParseRedirect extracts the session from the URL Supabase redirected to.
// A bare fragment ("access_token=...&refresh_token=...") is accepted too.
func ParseRedirect(raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	fragment := raw
	if u, err := url.Parse(raw); err == nil && (u.Fragment != "" || u.RawQuery != "") {
		fragment = u.Fragment
		if fragment == "" {
			fragment = u.RawQuery
		}
	}
	fragment = strings.TrimPrefix(fragment, "#")

	values, err := url.ParseQuery(fragment)
	if err != nil {
		return Session{}, fmt.Errorf("session: parse redirect: %w", err)
	}
	if desc := values.Get("error_description"); desc != "" {
		return Session{}, fmt.Errorf("session: oauth: %s", desc)
	}
	if code := values.Get("error"); code != "" {
		return Session{}, fmt.Errorf("session: oauth: %s", code)
	}

	s, err := FromAccessToken(values.Get("access_token"), values.Get("refresh_token"))
	if err != nil {
		return Session{}, err
	}
	if v := values.Get("expires_at"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.ExpiresAt = time.Unix(n, 0)
		}
	}
	return s, nil
}
