// Package export renders the owner's current appointment view as a report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/schedule"
)

var header = []string{"ID", "Nome", "Email", "Telefone", "Data", "Horário", "Status"}

// WriteCSV writes list in the given order, one row per appointment.
func WriteCSV(w io.Writer, list []appointments.Appointment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, a := range list {
		row := []string{
			string(a.ID),
			a.Name,
			a.Email,
			a.Phone,
			schedule.FormatDate(a.Date),
			schedule.TrimClock(a.Time),
			a.Status.Label(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %s: %w", a.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}
