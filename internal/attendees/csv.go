package attendees

import (
	"io"
	"time"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/pkg/export"
)

// ExportPrefix names attendee CSV downloads.
const ExportPrefix = "HapsayHub_Attendees"

// registeredLayout mirrors the en-US locale date string shown in the attendee table.
const registeredLayout = "1/2/2006, 3:04:05 PM"

var csvHeader = []string{"Ticket ID", "First Name", "Last Name", "Email", "Phone", "Organization", "Event Name", "Ticket Type", "Status", "Date Registered"}

// WriteCSV writes one quoted row per attendee; registration times are shown in loc.
func WriteCSV(w io.Writer, list []models.Attendee, loc *time.Location) error {
	rows := make([][]export.Field, 0, len(list))
	for _, a := range list {
		registered := ""
		if !a.RegisteredAt.IsZero() {
			registered = a.RegisteredAt.In(loc).Format(registeredLayout)
		}
		rows = append(rows, []export.Field{
			export.Q(a.TicketID),
			export.Q(a.FirstName),
			export.Q(a.LastName),
			export.Q(a.Email),
			export.Q(a.Phone),
			export.Q(a.Organization),
			export.Q(a.EventName),
			export.Q(string(a.TicketType)),
			export.Q(string(a.Status)),
			export.Q(registered),
		})
	}
	return export.WriteCSV(w, csvHeader, rows)
}
