// Package meet_tools provides the MCP tool for creating Google Meet links.
//
// Available tools:
//   - meet_create_link - Create a one-hour meeting (optionally weekly) in the
//     caller's calendar and return the event with its Meet URL
//
// The tool acts on behalf of the authenticated caller; it has no account
// parameter. Failures are returned as tool errors with the same generic
// messages as the HTTP endpoint.
//
// Example usage:
//
//	meet_create_link(
//	    name="Go study",
//	    start="2024-03-01T10:00",
//	    repeat=true,
//	    repeatEnd="2024-03-29"
//	)
package meet_tools
