package query

import (
	"github.com/hapsayhub/backend/internal/models"
)

// Page sizes of the concrete lists.
const (
	EventPageSize    = 5
	AttendeePageSize = 8
	UserPageSize     = 10
)

// EventSpec searches name and category and filters by status.
func EventSpec() Spec[models.Event] {
	return Spec[models.Event]{
		Fields:   func(e models.Event) []string { return []string{e.Name, e.Category} },
		Category: func(e models.Event) string { return string(e.Status) },
		All:      AllStatuses,
		PageSize: EventPageSize,
	}
}

// AttendeeSpec searches full name, email and ticket ID and filters by event name.
func AttendeeSpec() Spec[models.Attendee] {
	return Spec[models.Attendee]{
		Fields: func(a models.Attendee) []string {
			return []string{a.FullName(), a.Email, a.TicketID}
		},
		Category: func(a models.Attendee) string { return a.EventName },
		All:      AllCategories,
		PageSize: AttendeePageSize,
	}
}

// UserSpec searches name, login ID, role and email and filters by account status.
// An empty user list reports zero pages.
func UserSpec() Spec[models.User] {
	return Spec[models.User]{
		Fields: func(u models.User) []string {
			return []string{u.Name, u.LoginID, u.Role, u.Email}
		},
		Category:   func(u models.User) string { return string(u.Status) },
		All:        AllStatuses,
		PageSize:   UserPageSize,
		AllowEmpty: true,
	}
}

// VisitorSpec is the public grid: pending events hidden, unpaginated, category
// matched case-insensitively.
func VisitorSpec() Spec[models.Event] {
	return Spec[models.Event]{
		Fields: func(e models.Event) []string {
			return []string{e.Name, e.Description, e.Location}
		},
		Category:     func(e models.Event) string { return e.Category },
		FoldCategory: true,
		All:          AllCategories,
		Hidden:       func(e models.Event) bool { return e.IsPending() },
	}
}

func EventView() *View[models.Event]       { return NewView(EventSpec()) }
func AttendeeView() *View[models.Attendee] { return NewView(AttendeeSpec()) }
func UserView() *View[models.User]         { return NewView(UserSpec()) }
func VisitorView() *View[models.Event]     { return NewView(VisitorSpec()) }
