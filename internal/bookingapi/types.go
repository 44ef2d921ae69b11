package bookingapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wolfman30/agenda/internal/schedule"
)

// PublicRequest is the body of POST /agendamento-publico.
type PublicRequest struct {
	Name       string `json:"nome"`
	Email      string `json:"email"`
	Phone      string `json:"telefone"`
	Date       string `json:"data"`
	Time       string `json:"horario"`
	OwnerID    string `json:"user_id"`
	ShareToken string `json:"t"`
}

// NewAppointment is the body of POST /agendar.
type NewAppointment struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
	Phone string `json:"telefone"`
	Date  string `json:"data"`
	Time  string `json:"horario"`
}

type rescheduleRequest struct {
	NewDate string `json:"novaData"`
	NewTime string `json:"novoHorario"`
}

// ShareLink is the public booking URL plus a QR code image for it.
type ShareLink struct {
	Link      string
	QRCodeURL string
}

// Stats are the owner's personal statistics.
type Stats struct {
	Total          int
	ThisMonth      int
	Confirmed      int
	AttendanceRate string
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func trimTimes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = schedule.TrimClock(t)
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
