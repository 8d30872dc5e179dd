// Package provision implements meeting provisioning: given an authenticated
// session and a MeetingRequest it produces a Google Calendar event with a
// Google Meet conference in the caller's study calendar.
//
// The pipeline is strictly sequential:
//
//	sign_assertion -> token_exchange -> list_calendars -> [create_calendar]
//	  -> create_event -> read_settings -> write_settings
//
// Every failure is returned as *Error carrying a Kind, which decides the
// response status, and the Step that failed, which is only logged. Effects
// of completed steps are kept when a later step fails.
package provision
