// Package publicbooking implements the page a client reaches through the
// owner's share link: link parsing, the booking form and its submission.
package publicbooking

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidLink means the link lacks an owner or token; the page shows
// msgInvalidLink instead of the form.
var ErrInvalidLink = errors.New("publicbooking: invalid share link")

const msgInvalidLink = "Este link de agendamento é inválido ou expirado."

// Link identifies whose calendar is being booked.
type Link struct {
	OwnerID string
	Token   string
}

// ParseShareLink accepts https://host/agendar/{userId}/{t}, the same with
// ?user_id=&t= query parameters, or a bare "{userId}/{t}" path.
func ParseShareLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, ErrInvalidLink
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, ErrInvalidLink
	}

	q := u.Query()
	if owner, tok := q.Get("user_id"), q.Get("t"); owner != "" && tok != "" {
		return Link{OwnerID: owner, Token: tok}, nil
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, p := range parts {
		if p == "agendar" {
			parts = parts[i+1:]
			break
		}
	}
	if len(parts) != 2 {
		return Link{}, ErrInvalidLink
	}
	owner, err1 := url.PathUnescape(parts[0])
	tok, err2 := url.PathUnescape(parts[1])
	if err1 != nil || err2 != nil || owner == "" || tok == "" {
		return Link{}, ErrInvalidLink
	}
	return Link{OwnerID: owner, Token: tok}, nil
}
