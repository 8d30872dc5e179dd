package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/session"
)

// tokenVerifier maps bearer tokens to sessions.
type tokenVerifier map[string]*session.Session

func (v tokenVerifier) Verify(r *http.Request) (*session.Session, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, session.ErrNoSession
	}
	if s, found := v[raw]; found {
		return s, nil
	}
	return nil, session.ErrInvalidSession
}

type fakeProvisioner struct {
	calls   int
	gotSess *session.Session
	gotReq  provision.MeetingRequest
	event   *provision.MeetingEvent
	err     error
	panic   bool
}

func (f *fakeProvisioner) Provision(_ context.Context, sess *session.Session, req provision.MeetingRequest) (*provision.MeetingEvent, error) {
	f.calls++
	f.gotSess, f.gotReq = sess, req
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

var testSessions = tokenVerifier{
	"kim": {Name: "Kim", Email: "kim@org.test", LinkedID: "112233"},
}

func newTestServer(t *testing.T, p Provisioner, rl RateLimitConfig) *Server {
	t.Helper()
	s, err := New(Config{Provisioner: p, Verifier: testSessions, RateLimit: rl})
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
	})
	return s
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{Verifier: testSessions})
	assert.Error(t, err)

	_, err = New(Config{Provisioner: &fakeProvisioner{}})
	assert.Error(t, err)
}

func TestMeetHandler_Success(t *testing.T) {
	p := &fakeProvisioner{event: &provision.MeetingEvent{
		ID:             "evt1",
		CalendarID:     "cal1",
		ConferenceData: provision.ConferenceData{ConferenceID: "abc-defg-hij"},
		MeetURL:        "https://meet.google.com/abc-defg-hij",
	}}
	s := newTestServer(t, p, RateLimitConfig{})

	rec := doRequest(t, s.Handler(), http.MethodPost, MeetPath, "kim",
		`{"name":"Go study","start":"2024-03-01T10:00","repeat":true,"repeatEnd":"2024-03-29"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "evt1", body["id"])
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", body["meetUrl"])
	assert.Equal(t, map[string]any{"conferenceId": "abc-defg-hij"}, body["conferenceData"])

	assert.Equal(t, "kim@org.test", p.gotSess.Email)
	assert.Equal(t, provision.MeetingRequest{
		Title:     "Go study",
		Start:     "2024-03-01T10:00",
		Repeat:    true,
		RepeatEnd: "2024-03-29",
		Source:    "http",
	}, p.gotReq)
}

func TestMeetHandler_MethodNotAllowed(t *testing.T) {
	p := &fakeProvisioner{}
	s := newTestServer(t, p, RateLimitConfig{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			// 405 wins even without a session.
			rec := doRequest(t, s.Handler(), method, MeetPath, "", "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
			assert.Equal(t, "method not allowed", decodeMessage(t, rec))
		})
	}
	assert.Zero(t, p.calls)
}

func TestMeetHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		body        string
		err         error
		wantStatus  int
		wantMessage string
		wantNilSess bool
	}{
		{
			name:        "no session",
			body:        `{"name":"x","start":"2024-03-01T10:00"}`,
			err:         &provision.Error{Kind: provision.KindUnauthenticated, Step: provision.StepValidate},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "authentication required",
			wantNilSess: true,
		},
		{
			name:        "unknown token",
			token:       "stolen",
			err:         &provision.Error{Kind: provision.KindUnauthenticated, Step: provision.StepValidate},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "authentication required",
			wantNilSess: true,
		},
		{
			name:        "invalid request",
			token:       "kim",
			body:        `{"start":"2024-03-01T10:00"}`,
			err:         &provision.Error{Kind: provision.KindInvalidRequest, Step: provision.StepValidate, Err: errors.New("name is required")},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "name is required",
		},
		{
			name:        "upstream failure hides detail",
			token:       "kim",
			body:        `{"name":"x","start":"2024-03-01T10:00"}`,
			err:         &provision.Error{Kind: provision.KindUpstream, Step: provision.StepWriteSettings, Err: errors.New("401 from settings")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "failed to create meeting",
		},
		{
			name:        "foreign error",
			token:       "kim",
			body:        `{"name":"x","start":"2024-03-01T10:00"}`,
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "failed to create meeting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvisioner{err: tt.err}
			s := newTestServer(t, p, RateLimitConfig{})

			rec := doRequest(t, s.Handler(), http.MethodPost, MeetPath, tt.token, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeMessage(t, rec))
			assert.NotContains(t, rec.Body.String(), "write_settings")
			assert.Equal(t, tt.wantNilSess, p.gotSess == nil)
		})
	}
}

func TestMeetHandler_MalformedBodyIsEmptyRequest(t *testing.T) {
	p := &fakeProvisioner{err: &provision.Error{Kind: provision.KindUnauthenticated, Step: provision.StepValidate}}
	s := newTestServer(t, p, RateLimitConfig{})

	rec := doRequest(t, s.Handler(), http.MethodPost, MeetPath, "", `{not json`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, provision.MeetingRequest{Source: "http"}, p.gotReq)
}

func TestMeetHandler_InvalidBodyWithSession(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantMsg   string
		wantCalls int
	}{
		{
			name:     "wrong field type",
			body:     `{"name":"Go study","start":"2024-03-01T10:00","repeat":"true"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid request body",
		},
		{
			name:     "truncated json",
			body:     `{"name":"Go study"`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid request body",
		},
		{
			name:      "empty body reaches validation",
			body:      ``,
			wantCode:  http.StatusBadRequest,
			wantMsg:   "name is required",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvisioner{err: &provision.Error{
				Kind: provision.KindInvalidRequest,
				Step: provision.StepValidate,
				Err:  errors.New("name is required"),
			}}
			s := newTestServer(t, p, RateLimitConfig{})

			rec := doRequest(t, s.Handler(), http.MethodPost, MeetPath, "kim", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeMessage(t, rec))
			assert.Equal(t, tt.wantCalls, p.calls)
		})
	}
}

func TestMeetHandler_RecoversPanics(t *testing.T) {
	s := newTestServer(t, &fakeProvisioner{panic: true}, RateLimitConfig{})

	rec := doRequest(t, s.Handler(), http.MethodPost, MeetPath, "kim", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to create meeting", decodeMessage(t, rec))
}

func TestServer_RateLimit(t *testing.T) {
	p := &fakeProvisioner{event: &provision.MeetingEvent{ID: "evt1"}}
	s := newTestServer(t, p, RateLimitConfig{Rate: 1, Burst: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, doRequest(t, s.Handler(), http.MethodPost, MeetPath, "kim", `{}`).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, p.calls)

	// Health checks are never limited.
	assert.Equal(t, http.StatusOK, doRequest(t, s.Handler(), http.MethodGet, "/healthz", "", "").Code)
}

func TestServer_ShutdownFailsReadiness(t *testing.T) {
	s := newTestServer(t, &fakeProvisioner{}, RateLimitConfig{Rate: 1})

	assert.Equal(t, http.StatusOK, doRequest(t, s.Handler(), http.MethodGet, "/readyz", "", "").Code)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, s.Handler(), http.MethodGet, "/readyz", "", "").Code)
}

func TestServer_MCPRequiresSession(t *testing.T) {
	s, err := New(Config{
		Provisioner: &fakeProvisioner{},
		Verifier:    testSessions,
		MCPServer:   mcpserver.NewMCPServer("meetlink-test", "0.0.0"),
	})
	require.NoError(t, err)

	rec := doRequest(t, s.Handler(), http.MethodPost, MCPPath, "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}
