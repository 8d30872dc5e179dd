package google

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AssertionSigner produces RS256-signed JWT assertions that request a
// Calendar-scoped token on behalf of a delegated user.
type AssertionSigner struct {
	issuer   string
	subject  string
	audience string
	keyID    string
	key      *rsa.PrivateKey
}

// NewAssertionSigner creates a signer for the service account acting as
// subject. audience is the token endpoint URL.
func NewAssertionSigner(sa *ServiceAccount, subject, audience string) (*AssertionSigner, error) {
	if sa == nil {
		return nil, errors.New("service account cannot be nil")
	}
	if subject == "" {
		return nil, errors.New("delegated subject cannot be empty")
	}
	if audience == "" {
		audience = sa.TokenURL()
	}

	key, err := sa.RSAKey()
	if err != nil {
		return nil, err
	}

	return &AssertionSigner{
		issuer:   sa.ClientEmail,
		subject:  subject,
		audience: audience,
		keyID:    sa.PrivateKeyID,
		key:      key,
	}, nil
}

// Audience returns the token endpoint the assertions are addressed to.
func (s *AssertionSigner) Audience() string {
	return s.audience
}

// Sign returns a compact JWT issued at now and expiring five minutes later.
func (s *AssertionSigner) Sign(now time.Time) (string, error) {
	iat := now.Unix()
	claims := jwt.MapClaims{
		"iss":   s.issuer,
		"sub":   s.subject,
		"aud":   s.audience,
		"scope": CalendarScope,
		"iat":   iat,
		"exp":   iat + AssertionLifetime,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
