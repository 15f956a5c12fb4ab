// Package status derives an event's lifecycle state from its schedule and the wall clock.
package status

import (
	"strings"
	"time"

	"github.com/hapsayhub/backend/internal/models"
)

// RangeSeparator joins the start and end date of a multi-day event.
const RangeSeparator = " to "

// DateLayouts are tried in order when parsing one side of a date range.
var DateLayouts = []string{"Jan 2, 2006", "January 2, 2006", "2006-01-02"}

// TimeLayout is the 24-hour time-of-day format.
const TimeLayout = "15:04"

// Compute maps a schedule to Upcoming, Active or Archived at now.
// Any missing field yields Upcoming. A schedule that is present but cannot be parsed
// never compares as before or during, so it yields Archived.
func Compute(dateRange, startTime, endTime string, now time.Time) models.EventStatus {
	dateRange = strings.TrimSpace(dateRange)
	startTime = strings.TrimSpace(startTime)
	endTime = strings.TrimSpace(endTime)
	if dateRange == "" || startTime == "" || endTime == "" {
		return models.StatusUpcoming
	}

	startDate, endDate := SplitRange(dateRange)
	start, okStart := combine(startDate, startTime, now.Location())
	end, okEnd := combine(endDate, endTime, now.Location())
	if !okStart || !okEnd {
		return models.StatusArchived
	}

	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case !now.After(end):
		return models.StatusActive
	default:
		return models.StatusArchived
	}
}

// SplitRange splits "start to end"; a single date is both start and end.
func SplitRange(dateRange string) (start, end string) {
	parts := strings.SplitN(dateRange, RangeSeparator, 2)
	start = strings.TrimSpace(parts[0])
	end = start
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		end = strings.TrimSpace(parts[1])
	}
	return start, end
}

// FormatRange renders start (and end, when it differs) the way events store dateRange.
func FormatRange(start, end time.Time) string {
	s := start.Format(DateLayouts[0])
	if end.IsZero() {
		return s
	}
	e := end.Format(DateLayouts[0])
	if e == s {
		return s
	}
	return s + RangeSeparator + e
}

func combine(date, clock string, loc *time.Location) (time.Time, bool) {
	day, ok := parseDate(date, loc)
	if !ok {
		return time.Time{}, false
	}
	tod, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), true
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Resolve returns the status to display for ev at now. Pending events stay Pending.
func Resolve(ev models.Event, now time.Time) models.EventStatus {
	if ev.IsPending() {
		return models.StatusPending
	}
	return Compute(ev.DateRange, ev.StartTime, ev.EndTime, now)
}

// Apply overwrites the status of every non-pending event in place.
func Apply(events []models.Event, now time.Time) {
	for i := range events {
		events[i].Status = Resolve(events[i], now)
	}
}

// Counts tallies events per status.
func Counts(events []models.Event) map[string]int {
	out := map[string]int{
		string(models.StatusPending):  0,
		string(models.StatusUpcoming): 0,
		string(models.StatusActive):   0,
		string(models.StatusArchived): 0,
	}
	for _, ev := range events {
		out[string(ev.Status)]++
	}
	return out
}
