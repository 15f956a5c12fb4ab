package models

import "time"

// Email dispatch outcomes as reported to the registering surface.
const (
	EmailStatusSuccess = "success"
	EmailStatusError   = "error"
)

// TicketEmail is the form payload posted to the mail endpoint after a registration.
type TicketEmail struct {
	FirstName  string
	Email      string
	EventName  string
	TicketType TicketType
	Phone      string
	Org        string
	TicketID   string
}

// EmailDispatch records the outcome of one fire-and-forget email call.
type EmailDispatch struct {
	TicketID  string    `json:"ticket_id"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// TicketEmailFor builds the email payload from a stored attendee.
func TicketEmailFor(a Attendee) TicketEmail {
	return TicketEmail{
		FirstName:  a.FirstName,
		Email:      a.Email,
		EventName:  a.EventName,
		TicketType: a.TicketType,
		Phone:      a.Phone,
		Org:        a.Organization,
		TicketID:   a.TicketID,
	}
}
