package google

// CalendarScope is the only scope requested for the service account. It
// covers calendar list reads, calendar creation and event insertion.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// JWTBearerGrantType is the OAuth 2.0 grant type for exchanging a signed
// assertion for an access token (RFC 7523).
const JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// AssertionLifetime is how long a signed assertion stays valid.
const AssertionLifetime = 5 * 60 // seconds
