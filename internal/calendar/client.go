package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// MaxCalendarPageSize is the largest page calendarList.list accepts.
	MaxCalendarPageSize = 250

	// ConferenceSolutionMeet requests a Google Meet conference.
	ConferenceSolutionMeet = "hangoutsMeet"

	// SendUpdatesAll emails every attendee about the new event.
	SendUpdatesAll = "all"
)

// Client wraps the Google Calendar service
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client authorized by the given token source.
// Extra options are appended after the token source, so tests can point the
// client at a fake endpoint with option.WithEndpoint and option.WithHTTPClient.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	if ts == nil {
		return nil, errors.New("token source cannot be nil")
	}

	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := calendar.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// NewClientForToken creates a Calendar client for a single access token.
// When httpClient is not nil its transport and timeout carry every call,
// with the token added by an oauth2.Transport.
func NewClientForToken(ctx context.Context, token *oauth2.Token, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("access token cannot be empty")
	}
	ts := oauth2.StaticTokenSource(token)
	if httpClient == nil {
		return NewClient(ctx, ts, opts...)
	}

	authed := &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &oauth2.Transport{Source: ts, Base: httpClient.Transport},
	}
	svc, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(authed)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListCalendars lists all calendars accessible to the delegated user,
// following nextPageToken until the last page.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo

	err := c.svc.CalendarList.List().
		MaxResults(MaxCalendarPageSize).
		Pages(ctx, func(page *calendar.CalendarList) error {
			for _, entry := range page.Items {
				calendars = append(calendars, toCalendarInfo(entry))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	return calendars, nil
}

// CreateCalendar creates a secondary calendar with the given summary
func (c *Client) CreateCalendar(ctx context.Context, summary string) (*CalendarInfo, error) {
	created, err := c.svc.Calendars.Insert(&calendar.Calendar{Summary: summary}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	return &CalendarInfo{
		ID:       created.Id,
		Summary:  created.Summary,
		TimeZone: created.TimeZone,
	}, nil
}

// CreateMeetingEvent inserts an event with a new Google Meet conference
// attached and notifies the attendee.
func (c *Client) CreateMeetingEvent(ctx context.Context, calendarID string, input MeetingInput) (*Event, error) {
	if input.RequestID == "" {
		return nil, errors.New("conference request id is required")
	}

	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary: input.Summary,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		},
		Attendees: []*calendar.EventAttendee{{
			DisplayName: input.Attendee.DisplayName,
			Email:       input.Attendee.Email,
		}},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: ConferenceSolutionMeet},
				RequestId:             input.RequestID,
			},
		},
	}

	if len(input.Recurrence) > 0 {
		event.Recurrence = input.Recurrence
	}

	created, err := c.svc.Events.Insert(calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates(SendUpdatesAll).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	out := toEvent(calendarID, created)
	return &out, nil
}
