package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

const (
	// StateCookieName holds the OAuth2 state between login and callback.
	StateCookieName = "meetlink_oauth_state"

	stateCookieTTL = 10 * time.Minute

	// Route paths registered by RegisterRoutes.
	LoginPath    = "/auth/login"
	CallbackPath = "/auth/callback"
	LogoutPath   = "/auth/logout"
)

// Options configures the OIDC login flow.
type Options struct {
	Issuer       string
	ClientID     string
	ClientSecret string

	// BaseURL is the externally visible server URL; the callback is
	// BaseURL + CallbackPath.
	BaseURL string

	CookieName         string
	CookieSecure       bool
	LinkedAccountClaim string

	// SessionKey signs session cookies. When empty a random key is used and
	// sessions end on restart.
	SessionKey []byte

	// SessionMaxAge is the session lifetime; zero means DefaultMaxAge.
	SessionMaxAge time.Duration

	// Scopes default to openid, profile and email.
	Scopes []string
}

// Authenticator runs the authorization-code flow against the identity
// provider and, once the ID token verifies, issues the session cookie.
type Authenticator struct {
	oauth2   *oauth2.Config
	verifier *OIDCVerifier
	cookies  *CookieIssuer
	opts     Options
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// Discover fetches the provider's discovery document and builds an
// Authenticator from it.
func Discover(ctx context.Context, opts Options, metrics *instrumentation.Metrics, logger *slog.Logger) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, opts.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	idv := provider.Verifier(&oidc.Config{ClientID: opts.ClientID})
	return NewAuthenticator(provider.Endpoint(), idv, opts, metrics, logger)
}

// NewAuthenticator creates an Authenticator for a known endpoint and verifier.
func NewAuthenticator(endpoint oauth2.Endpoint, idv *oidc.IDTokenVerifier, opts Options, metrics *instrumentation.Metrics, logger *slog.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")

	key := opts.SessionKey
	if len(key) == 0 {
		logger.Warn("no session key configured, sessions will not survive a restart")
		key = RandomKey()
	}
	cookies, err := NewCookieIssuer(opts.CookieName, key, opts.SessionMaxAge, opts.CookieSecure)
	if err != nil {
		return nil, err
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &Authenticator{
		oauth2: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.BaseURL + CallbackPath,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier: NewOIDCVerifier(idv, cookies, opts.LinkedAccountClaim),
		cookies:  cookies,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Verifier returns the request verifier sharing this Authenticator's cookie.
func (a *Authenticator) Verifier() *OIDCVerifier {
	return a.verifier
}

// RegisterRoutes registers the login, callback and logout handlers.
func (a *Authenticator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(LoginPath, a.handleLogin)
	mux.HandleFunc(CallbackPath, a.handleCallback)
	mux.HandleFunc(LogoutPath, a.handleLogout)
}

func (a *Authenticator) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.oauth2.AuthCodeURL(state), http.StatusFound)
}

func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if idpErr := q.Get("error"); idpErr != "" {
		a.fail(ctx, w, http.StatusUnauthorized, "identity provider returned error", errors.New(idpErr))
		return
	}

	stateCookie, err := r.Cookie(StateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != q.Get("state") {
		a.fail(ctx, w, http.StatusBadRequest, "state mismatch", err)
		return
	}
	a.clearCookie(w, StateCookieName, "/auth")

	token, err := a.oauth2.Exchange(ctx, q.Get("code"))
	if err != nil {
		a.fail(ctx, w, http.StatusUnauthorized, "code exchange failed", err)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		a.fail(ctx, w, http.StatusUnauthorized, "no id_token in token response", nil)
		return
	}

	sess, err := a.verifier.VerifyToken(ctx, rawIDToken)
	if err != nil {
		a.logger.Debug("rejected id token", slog.String("id_token", logging.SanitizeToken(rawIDToken)))
		a.fail(ctx, w, http.StatusUnauthorized, "id token verification failed", err)
		return
	}

	cookie, err := a.cookies.Issue(sess)
	if err != nil {
		a.fail(ctx, w, http.StatusInternalServerError, "session cookie", err)
		return
	}
	http.SetCookie(w, cookie)

	a.metrics.RecordSessionAuth(ctx, instrumentation.OAuthResultSuccess)
	a.logger.Info("session established", logging.UserHash(sess.Email), logging.Domain(sess.Email))

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *Authenticator) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.cookies.Clear())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *Authenticator) fail(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	a.metrics.RecordSessionAuth(ctx, instrumentation.OAuthResultFailure)
	a.logger.Warn("login failed", "reason", msg, logging.Err(err))
	http.Error(w, http.StatusText(status), status)
}

func (a *Authenticator) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
