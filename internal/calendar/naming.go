package calendar

import (
	"fmt"
	"strings"
	"time"
)

// MeetBaseURL is the prefix of every Google Meet join link.
const MeetBaseURL = "https://meet.google.com/"

// recurrenceUntilLayout is the RFC 5545 UTC date-time form.
const recurrenceUntilLayout = "20060102T150405Z"

// LocalPart returns the part of an email address before the first "@".
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// CalendarSummary builds the summary of a per-user calendar, e.g.
// "스터디 - Kim (kim)".
func CalendarSummary(prefix, name, localPart string) string {
	return fmt.Sprintf("%s - %s (%s)", prefix, name, localPart)
}

// SelectCalendar returns the first calendar whose summary contains localPart.
// The match is a case-sensitive substring match in list order.
func SelectCalendar(calendars []CalendarInfo, localPart string) (CalendarInfo, bool) {
	if localPart == "" {
		return CalendarInfo{}, false
	}
	for _, cal := range calendars {
		if strings.Contains(cal.Summary, localPart) {
			return cal, true
		}
	}
	return CalendarInfo{}, false
}

// RecurrenceUntil returns the instant the given calendar day ends in loc,
// in UTC. Only the year, month and day of day are used.
func RecurrenceUntil(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).UTC()
}

// WeeklyRecurrence returns a weekly RRULE ending at until.
func WeeklyRecurrence(until time.Time) []string {
	return []string{"RRULE:FREQ=WEEKLY;UNTIL=" + until.UTC().Format(recurrenceUntilLayout)}
}

// MeetURL returns the join link for a conference id, or "" when unknown.
func MeetURL(conferenceID string) string {
	if conferenceID == "" {
		return ""
	}
	return MeetBaseURL + conferenceID
}
