package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

var (
	// ErrNoSession is returned when the request carries no session credential.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession is returned when a credential is present but fails
	// verification.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is the authenticated caller.
type Session struct {
	Name  string
	Email string

	// LinkedID is the caller's linked account id from the identity
	// provider; empty when the account is not linked.
	LinkedID string
}

// Complete reports whether the session carries both a name and an email.
func (s *Session) Complete() bool {
	return s != nil && s.Name != "" && s.Email != ""
}

// Verifier resolves the session of an incoming request.
type Verifier interface {
	Verify(r *http.Request) (*Session, error)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Attach resolves the request's session and stores it in the request
// context. Requests without a valid session pass through unchanged so the
// handler can decide how to respond.
func Attach(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := v.Verify(r)
			switch {
			case err == nil:
				r = r.WithContext(WithSession(r.Context(), s))
			case errors.Is(err, ErrNoSession):
			default:
				logger.Debug("session rejected", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests without a session in their context with 401.
// It must run after Attach.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="meetlink"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
