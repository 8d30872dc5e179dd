// Package calendar provides a client for the subset of the Google Calendar
// API needed to provision meetings: listing the delegated user's calendars,
// creating a per-user calendar and inserting an event with a Google Meet
// conference.
//
// It also holds the naming and recurrence helpers the provisioning pipeline
// uses to pick a calendar and build RRULEs.
//
// Example usage:
//
//	client, err := calendar.NewClientForToken(ctx, token, httpClient)
//	if err != nil {
//	    return err
//	}
//
//	calendars, err := client.ListCalendars(ctx)
//	if err != nil {
//	    return err
//	}
//	cal, ok := calendar.SelectCalendar(calendars, calendar.LocalPart(email))
package calendar
