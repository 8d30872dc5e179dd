package provision

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/meetlink/internal/calendar"
)

// MeetingDuration is the fixed length of every meeting.
const MeetingDuration = time.Hour

// Accepted layouts for start besides RFC 3339. They carry no offset and are
// read in the configured meeting time zone.
var localStartLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// MeetingRequest is the body of a create request.
type MeetingRequest struct {
	Title     string `json:"name"`
	Start     string `json:"start"`
	Repeat    bool   `json:"repeat,omitempty"`
	RepeatEnd string `json:"repeatEnd,omitempty"`

	// Source is the entry point for audit records (http, mcp, cli).
	Source string `json:"-"`
}

// meetingPlan is a validated request.
type meetingPlan struct {
	title      string
	start      time.Time
	end        time.Time
	recurrence []string
}

func (r MeetingRequest) plan(loc *time.Location) (*meetingPlan, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, errors.New("name is required")
	}
	if strings.TrimSpace(r.Start) == "" {
		return nil, errors.New("start is required")
	}

	start, err := parseStart(r.Start, loc)
	if err != nil {
		return nil, err
	}

	p := &meetingPlan{
		title: r.Title,
		start: start,
		end:   start.Add(MeetingDuration),
	}

	if r.Repeat && r.RepeatEnd != "" {
		day, err := parseRepeatEnd(r.RepeatEnd, loc)
		if err != nil {
			return nil, err
		}
		sy, sm, sd := start.In(loc).Date()
		if day.Before(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)) {
			return nil, errors.New("repeatEnd must not be before start")
		}
		p.recurrence = calendar.WeeklyRecurrence(calendar.RecurrenceUntil(day, loc))
	}

	return p, nil
}

func parseStart(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localStartLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("start %q is not a valid date-time", s)
}

// parseRepeatEnd returns the calendar day of s as midnight UTC. A bare date
// is taken as is; a timestamp is first moved into loc.
func parseRepeatEnd(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("repeatEnd %q is not a valid date", s)
}
