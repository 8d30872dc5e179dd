package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// MeetingInput represents the input for creating a conferencing-enabled event
type MeetingInput struct {
	Summary  string
	Start    time.Time
	End      time.Time
	TimeZone string

	// Attendee is invited with sendUpdates=all.
	Attendee AttendeeInfo

	Recurrence []string // RRULE lines

	// RequestID identifies the conference create request. Google dedupes
	// create requests that reuse an id.
	RequestID string
}

// Event represents a created calendar event
type Event struct {
	ID           string
	CalendarID   string
	Summary      string
	HTMLLink     string
	Start        time.Time
	End          time.Time
	TimeZone     string
	Attendees    []AttendeeInfo
	Recurrence   []string
	ConferenceID string
	MeetLink     string
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email       string
	DisplayName string
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID         string
	Summary    string
	TimeZone   string
	Primary    bool
	AccessRole string // "owner", "writer", "reader", "freeBusyReader"
}

// toEvent converts a Google Calendar event to an Event
func toEvent(calendarID string, event *calendar.Event) Event {
	out := Event{
		ID:         event.Id,
		CalendarID: calendarID,
		Summary:    event.Summary,
		HTMLLink:   event.HtmlLink,
		Recurrence: event.Recurrence,
	}

	if event.Start != nil {
		out.Start = parseEventTime(event.Start)
		out.TimeZone = event.Start.TimeZone
	}
	if event.End != nil {
		out.End = parseEventTime(event.End)
	}

	for _, att := range event.Attendees {
		out.Attendees = append(out.Attendees, AttendeeInfo{
			Email:       att.Email,
			DisplayName: att.DisplayName,
		})
	}

	if event.ConferenceData != nil {
		out.ConferenceID = event.ConferenceData.ConferenceId
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}
	if out.MeetLink == "" {
		out.MeetLink = MeetURL(out.ConferenceID)
	}

	return out
}

func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse(time.DateOnly, edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	return CalendarInfo{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		Primary:    entry.Primary,
		AccessRole: entry.AccessRole,
	}
}
