// Package google obtains Calendar access tokens for a service account acting
// on behalf of a delegated user.
//
// The flow is the two-legged JWT bearer grant: an RS256 assertion is signed
// with the service account's private key and exchanged at the token endpoint
// for a short-lived access token.
//
// The TokenProvider interface allows the flow to be wrapped, for example by
// CachingTokenProvider, or replaced entirely in tests.
package google
