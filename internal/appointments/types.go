// Package appointments models the owner's appointment list: records as the
// booking API returns them, status actions, and the client side filter/sort.
package appointments

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoEmail is stored when a booking is made without the optional email.
const NoEmail = "Não informado"

// Status is the lifecycle state owned by the remote service.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusConfirmed Status = "confirmado"
	StatusCancelled Status = "cancelado"
)

// ParseStatus accepts wire values and English names.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pendente", "pending":
		return StatusPending, nil
	case "confirmado", "confirmed":
		return StatusConfirmed, nil
	case "cancelado", "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("appointments: unknown status %q", s)
}

// Label is the capitalised display form.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusConfirmed:
		return "Confirmado"
	case StatusCancelled:
		return "Cancelado"
	}
	return string(s)
}

// Action is an owner-initiated status transition, named as the API path segment.
type Action string

const (
	ActionConfirm Action = "confirmar"
	ActionCancel  Action = "cancelar"
)

// Target is the status the remote service moves the appointment to.
func (a Action) Target() Status {
	if a == ActionConfirm {
		return StatusConfirmed
	}
	return StatusCancelled
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionConfirm || a == ActionCancel
}

// ID is the opaque appointment identifier. The API sends it as a number on
// some endpoints and as a string on others.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("appointments: invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Appointment is a booking as listed by GET /agendamentos.
type Appointment struct {
	ID      ID     `json:"id"`
	Name    string `json:"nome"`
	Email   string `json:"email"`
	Phone   string `json:"telefone"`
	Date    string `json:"data"`
	Time    string `json:"horario"`
	Status  Status `json:"status"`
	OwnerID string `json:"user_id,omitempty"`
}

// Offers lists what an appointment card lets the owner do.
type Offers struct {
	Confirm    bool
	Cancel     bool
	Reschedule bool
}

// Actions returns the available owner actions. Rescheduling never changes
// the status and is always offered.
func Actions(a Appointment) Offers {
	return Offers{
		Confirm:    a.Status != StatusConfirmed,
		Cancel:     a.Status != StatusCancelled,
		Reschedule: true,
	}
}
