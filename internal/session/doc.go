// Package session authenticates callers against the organization's OpenID
// Connect identity provider.
//
// The browser flow is a plain authorization-code exchange. /auth/login
// redirects to the provider. /auth/callback verifies the returned ID token
// and issues an HttpOnly session cookie signed with the configured key
// (CookieIssuer), valid for the configured max age. /auth/logout clears it.
// Non-browser clients send an ID token as a bearer token instead, which is
// verified on every request. Nothing is stored server side.
package session
