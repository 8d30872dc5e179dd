package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Standard claims read from the ID token.
const (
	ClaimName  = "name"
	ClaimEmail = "email"
)

// OIDCVerifier resolves the caller of a request. Non-browser clients send
// an ID token issued by the organization's identity provider in an
// "Authorization: Bearer" header; browsers carry the session cookie issued
// at login. The header wins when both are present.
type OIDCVerifier struct {
	verifier    *oidc.IDTokenVerifier
	cookies     *CookieIssuer
	linkedClaim string
}

// NewOIDCVerifier wraps an ID token verifier and the session cookie issuer.
// cookies may be nil to accept bearer tokens only. linkedClaim names the
// claim that carries the caller's linked account id.
func NewOIDCVerifier(verifier *oidc.IDTokenVerifier, cookies *CookieIssuer, linkedClaim string) *OIDCVerifier {
	return &OIDCVerifier{
		verifier:    verifier,
		cookies:     cookies,
		linkedClaim: linkedClaim,
	}
}

// Verify implements Verifier.
func (v *OIDCVerifier) Verify(r *http.Request) (*Session, error) {
	if raw := bearerToken(r); raw != "" {
		return v.VerifyToken(r.Context(), raw)
	}
	if v.cookies == nil {
		return nil, ErrNoSession
	}
	return v.cookies.Read(r)
}

// VerifyToken verifies a raw ID token and maps its claims to a Session.
func (v *OIDCVerifier) VerifyToken(ctx context.Context, raw string) (*Session, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	var claims map[string]json.RawMessage
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %w", ErrInvalidSession, err)
	}

	return &Session{
		Name:     claimString(claims[ClaimName]),
		Email:    claimString(claims[ClaimEmail]),
		LinkedID: claimString(claims[v.linkedClaim]),
	}, nil
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// claimString renders a string or numeric claim as text. Numbers keep their
// literal form so large account ids are not rounded.
func claimString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
