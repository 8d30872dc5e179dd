package provision

import (
	"time"

	"github.com/teemow/meetlink/internal/calendar"
)

// MeetingEvent is the created event as returned to the caller. Its shape
// follows the Calendar API event resource.
type MeetingEvent struct {
	ID             string         `json:"id"`
	CalendarID     string         `json:"calendarId"`
	Summary        string         `json:"summary"`
	HTMLLink       string         `json:"htmlLink,omitempty"`
	Start          EventTime      `json:"start"`
	End            EventTime      `json:"end"`
	Attendees      []Attendee     `json:"attendees"`
	Recurrence     []string       `json:"recurrence,omitempty"`
	ConferenceData ConferenceData `json:"conferenceData"`
	MeetURL        string         `json:"meetUrl"`
	SpaceID        string         `json:"spaceId,omitempty"`
}

// EventTime is an event boundary.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Attendee is an invited participant.
type Attendee struct {
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email"`
}

// ConferenceData identifies the attached Meet conference.
type ConferenceData struct {
	ConferenceID string `json:"conferenceId"`
}

func newMeetingEvent(ev *calendar.Event) *MeetingEvent {
	out := &MeetingEvent{
		ID:             ev.ID,
		CalendarID:     ev.CalendarID,
		Summary:        ev.Summary,
		HTMLLink:       ev.HTMLLink,
		Start:          EventTime{DateTime: formatTime(ev.Start), TimeZone: ev.TimeZone},
		End:            EventTime{DateTime: formatTime(ev.End), TimeZone: ev.TimeZone},
		Attendees:      make([]Attendee, 0, len(ev.Attendees)),
		Recurrence:     ev.Recurrence,
		ConferenceData: ConferenceData{ConferenceID: ev.ConferenceID},
		MeetURL:        calendar.MeetURL(ev.ConferenceID),
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, Attendee{DisplayName: a.DisplayName, Email: a.Email})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
