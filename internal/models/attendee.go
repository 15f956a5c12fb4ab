package models

import "time"

// TicketType is the pass an attendee registered for.
type TicketType string

const (
	TicketGeneral TicketType = "General"
	TicketVIP     TicketType = "VIP"
	TicketStudent TicketType = "Student"
)

// AttendeeStatus tracks check-in progress for a ticket.
type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "Registered"
	AttendeePaid       AttendeeStatus = "Paid"
	AttendeeCheckedIn  AttendeeStatus = "Checked-in"
)

// Attendee is a ticket registration stored under hh_attendees.
// EventID is not checked against the catalog.
type Attendee struct {
	TicketID     string         `json:"ticketID"`
	EventID      FlexInt        `json:"eventId"`
	EventName    string         `json:"eventName"`
	FirstName    string         `json:"fname"`
	LastName     string         `json:"lname"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Organization string         `json:"org,omitempty"`
	TicketType   TicketType     `json:"ticketType"`
	Status       AttendeeStatus `json:"status"`
	RegisteredAt time.Time      `json:"dateRegistered"`
}

// AttendeeKey returns the store identity of an attendee.
func AttendeeKey(a Attendee) string { return a.TicketID }

// FullName joins first and last name the way lists display it.
func (a Attendee) FullName() string {
	return a.FirstName + " " + a.LastName
}

// IsVIP matches both "VIP" and the legacy "VIP Pass" label.
func (t TicketType) IsVIP() bool {
	return t == TicketVIP || t == "VIP Pass"
}

// ValidAttendeeStatus reports whether s is a known attendee status.
func ValidAttendeeStatus(s AttendeeStatus) bool {
	switch s {
	case AttendeeRegistered, AttendeePaid, AttendeeCheckedIn:
		return true
	}
	return false
}
