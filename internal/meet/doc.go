// Package meet talks to the internal Google Calendar settings API that the
// Calendar web UI uses to configure a Meet conference.
//
// The API is undocumented. Messages are JSON arrays in Google's
// JSON+protobuf encoding, so payloads are handled as opaque positional
// values with named index constants instead of typed structs. Calls are
// authorized as an administrative browser session: a SAPISIDHASH
// Authorization header plus the session cookies.
//
// A provisioning run reads the settings once to learn the meeting space id
// and then writes an update that enables moderation, enables co-host
// artifact sharing and creates two breakout rooms:
//
//	client := meet.NewSettingsClient(baseURL, creds, http.DefaultClient)
//	current, err := client.Get(ctx, conferenceID, calendarID)
//	if err != nil {
//		return err
//	}
//	spaceID, err := current.SpaceID()
//	if err != nil {
//		return err
//	}
//	update := meet.BuildSettingsUpdate(conferenceID, calendarID, spaceID, targets)
//	err = client.Update(ctx, conferenceID, calendarID, update)
package meet
