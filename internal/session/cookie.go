package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultMaxAge is the session lifetime when none is configured.
	DefaultMaxAge = 30 * 24 * time.Hour

	// MinKeyLength is the shortest accepted HMAC key for session cookies.
	MinKeyLength = 32

	sessionIssuer = "meetlink"
)

type sessionClaims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	LinkedID string `json:"lid,omitempty"`
	jwt.RegisteredClaims
}

// CookieIssuer writes and reads the application session cookie. The cookie
// is an HS256 JWT carrying the identity taken from a verified ID token, so
// it outlives the identity provider's short-lived ID token.
type CookieIssuer struct {
	name   string
	key    []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieIssuer creates an issuer for the cookie called name. A zero
// maxAge means DefaultMaxAge.
func NewCookieIssuer(name string, key []byte, maxAge time.Duration, secure bool) (*CookieIssuer, error) {
	if name == "" {
		return nil, errors.New("session cookie name is required")
	}
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("session key must be at least %d bytes", MinKeyLength)
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CookieIssuer{
		name:   name,
		key:    key,
		maxAge: maxAge,
		secure: secure,
		now:    time.Now,
	}, nil
}

// RandomKey returns a fresh key for NewCookieIssuer. Sessions signed with it
// do not survive a restart.
func RandomKey() []byte {
	key := make([]byte, MinKeyLength)
	_, _ = rand.Read(key)
	return key
}

// Name returns the cookie name.
func (c *CookieIssuer) Name() string {
	return c.name
}

// Issue signs s into a new session cookie.
func (c *CookieIssuer) Issue(s *Session) (*http.Cookie, error) {
	now := c.now()
	expires := now.Add(c.maxAge)

	claims := sessionClaims{
		Name:     s.Name,
		Email:    s.Email,
		LinkedID: s.LinkedID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   s.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return &http.Cookie{
		Name:     c.name,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Read returns the session in r's cookie, ErrNoSession when there is none,
// or an error wrapping ErrInvalidSession.
func (c *CookieIssuer) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	return c.parse(cookie.Value)
}

func (c *CookieIssuer) parse(raw string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	return &Session{
		Name:     claims.Name,
		Email:    claims.Email,
		LinkedID: claims.LinkedID,
	}, nil
}

// Clear returns a cookie that deletes the session cookie.
func (c *CookieIssuer) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
