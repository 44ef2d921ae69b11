// Package apperr defines the failure taxonomy shared by the API client and
// the screens that surface failures to the user.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how the caller must react to it.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindTransport is a network failure, timeout or undecodable response.
	KindTransport
	// KindUnauthorized is an HTTP 401: the session expired.
	KindUnauthorized
	// KindApplication is a rejection carrying a user-facing message.
	KindApplication
	// KindValidation is a form problem caught before any request was sent.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindApplication:
		return "application"
	case KindValidation:
		return "validation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrUnauthorized marks a rejected or missing bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is wrapped by client side form validation failures.
	ErrValidation = errors.New("validation failed")
)

// TransportError wraps failures below the application protocol.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response or a success:false envelope.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: api returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: api returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Classify maps an error onto the taxonomy. Unknown errors count as transport
// failures since they degrade the same way.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnauthorized) {
		return KindUnauthorized
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindApplication
	}
	return KindTransport
}

// UserMessage returns the text shown to the user: the server message of an
// application error, the problem list of a validation error, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrValidation) {
		msg := err.Error()
		marker := ErrValidation.Error() + ": "
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return fallback
}

// Validation builds a validation error listing the problem.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
