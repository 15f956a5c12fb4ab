package models

import (
	"fmt"
	"strconv"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	StatusPending  EventStatus = "Pending"
	StatusUpcoming EventStatus = "Upcoming"
	StatusActive   EventStatus = "Active"
	StatusArchived EventStatus = "Archived"
)

// Event is one catalog entry. JSON keys match the documents already written by the
// browser surfaces under hh_global_events.
type Event struct {
	ID               FlexInt     `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	DateRange        string      `json:"date"` // "Jan 2, 2006" or "Jan 2, 2006 to Jan 3, 2006"
	StartTime        string      `json:"startTime"`
	EndTime          string      `json:"endTime"`
	Location         string      `json:"location"`
	Category         string      `json:"category"`
	Capacity         FlexInt     `json:"capacity"`
	Registration     string      `json:"registration"` // "used / capacity"
	Image            string      `json:"image,omitempty"`
	Status           EventStatus `json:"status"`
	ApprovalOverride bool        `json:"approvalOverride,omitempty"`
}

// EventKey returns the store identity of an event.
func EventKey(e Event) string {
	return strconv.FormatInt(int64(e.ID), 10)
}

// IsPending reports whether the event is pinned to Pending. Documents written before
// approvalOverride existed carry only status "Pending".
func (e Event) IsPending() bool {
	return e.ApprovalOverride || e.Status == StatusPending
}

// RegistrationSummary formats the "used / capacity" display string.
func RegistrationSummary(used, capacity int64) string {
	return fmt.Sprintf("%d / %d", used, capacity)
}
