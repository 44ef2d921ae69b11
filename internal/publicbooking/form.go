package publicbooking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/wolfman30/agenda/internal/apperr"
	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/bookingapi"
	"github.com/wolfman30/agenda/internal/schedule"
)

const (
	msgBookingFailed = "Erro ao agendar."
	msgConnection    = "Erro de conexão. Tente novamente."
)

// Form is what the client fills in.
type Form struct {
	Name  string
	Email string
	Phone string
	Date  string
	Time  string
}

// NewForm starts a form with today's date preselected.
func NewForm(now time.Time) Form {
	return Form{Date: now.Format(schedule.DateLayout)}
}

// SetSlot fills date and time, e.g. from the chat assistant.
func (f *Form) SetSlot(date, clock string) {
	f.Date = date
	f.Time = clock
}

// Validate checks required fields before anything is sent.
func (f Form) Validate() error {
	var problems []string
	if strings.TrimSpace(f.Name) == "" {
		problems = append(problems, "nome é obrigatório")
	}
	if strings.TrimSpace(f.Phone) == "" {
		problems = append(problems, "telefone é obrigatório")
	} else if n := len(PhoneDigits(f.Phone)); n < 10 || n > 11 {
		problems = append(problems, "telefone deve ter DDD e 8 ou 9 dígitos")
	}
	if _, err := schedule.ParseDate(f.Date); err != nil {
		problems = append(problems, "data inválida")
	}
	if _, _, err := schedule.ParseClock(f.Time); err != nil {
		problems = append(problems, "horário inválido")
	}
	if len(problems) > 0 {
		return apperr.Validation(strings.Join(problems, "; "))
	}
	return nil
}

// PhoneDigits strips the mask from a phone number.
func PhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone applies the (00) 00000-0000 mask; 10 digit landlines get
// (00) 0000-0000. Anything else is returned unchanged.
func FormatPhone(s string) string {
	d := PhoneDigits(s)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:])
	}
	return s
}

// Request builds the API body for link.
func (f Form) Request(link Link) bookingapi.PublicRequest {
	email := strings.TrimSpace(f.Email)
	if email == "" {
		email = appointments.NoEmail
	}
	return bookingapi.PublicRequest{
		Name:       strings.TrimSpace(f.Name),
		Email:      email,
		Phone:      FormatPhone(f.Phone),
		Date:       f.Date,
		Time:       schedule.TrimClock(f.Time),
		OwnerID:    link.OwnerID,
		ShareToken: link.Token,
	}
}

// Submitter sends a public booking.
type Submitter interface {
	SubmitPublicAppointment(ctx context.Context, req bookingapi.PublicRequest) (string, error)
}

// Confirmation is shown after a successful booking.
type Confirmation struct {
	Message string
	Form    Form
}

// Submit validates and sends the form.
func Submit(ctx context.Context, api Submitter, link Link, f Form) (Confirmation, error) {
	if link.OwnerID == "" || link.Token == "" {
		return Confirmation{}, ErrInvalidLink
	}
	if err := f.Validate(); err != nil {
		return Confirmation{}, err
	}
	msg, err := api.SubmitPublicAppointment(ctx, f.Request(link))
	if err != nil {
		return Confirmation{}, err
	}
	return Confirmation{Message: msg, Form: f}, nil
}

// FailureMessage is the text shown for an error returned by Submit.
func FailureMessage(err error) string {
	if errors.Is(err, ErrInvalidLink) {
		return msgInvalidLink
	}
	switch apperr.Classify(err) {
	case apperr.KindApplication:
		return apperr.UserMessage(err, msgBookingFailed)
	case apperr.KindValidation:
		return apperr.UserMessage(err, err.Error())
	case apperr.KindNone:
		return ""
	}
	return msgConnection
}
