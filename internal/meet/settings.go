package meet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// ContentTypeJSONProtobuf is the media type of positional payloads.
	ContentTypeJSONProtobuf = "application/json+protobuf"

	// Origin is sent as X-Origin; the API rejects other origins.
	Origin = "https://calendar.google.com"

	maxErrorBody = 512
)

// Credentials authenticate against the internal settings API as an
// administrative browser session.
type Credentials struct {
	APIKey      string
	SAPISIDHash string
	AuthUser    string
	Cookies     Cookies
}

// Cookies are the browser session cookies sent with every call.
type Cookies struct {
	SID     string
	HSID    string
	SSID    string
	APISID  string
	SAPISID string
}

// Header renders the cookies as a Cookie header value in a fixed order.
func (c Cookies) Header() string {
	pairs := []struct{ name, value string }{
		{"SID", c.SID},
		{"HSID", c.HSID},
		{"SSID", c.SSID},
		{"APISID", c.APISID},
		{"SAPISID", c.SAPISID},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.name+"="+p.value)
	}
	return strings.Join(parts, "; ")
}

// StatusError is returned for any non-2xx settings response.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("settings %s returned status %d: %s", e.Method, e.StatusCode, e.Body)
}

// SettingsClient reads and writes meeting settings through the internal
// calendar-pa API.
type SettingsClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewSettingsClient creates a client for the API rooted at baseURL.
func NewSettingsClient(baseURL string, creds Credentials, httpClient *http.Client) *SettingsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SettingsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: httpClient,
	}
}

// Get reads the settings of a conference.
func (c *SettingsClient) Get(ctx context.Context, conferenceID, calendarID string) (Payload, error) {
	resp, err := c.do(ctx, http.MethodGet, conferenceID, calendarID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return DecodePayload(resp.Body)
}

// Update writes the settings of a conference. The response body is not
// inspected.
func (c *SettingsClient) Update(ctx context.Context, conferenceID, calendarID string, body Payload) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode settings update: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, conferenceID, calendarID, data)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *SettingsClient) settingsURL(conferenceID, calendarID string) string {
	q := url.Values{}
	q.Set("alt", "protojson")
	q.Set("key", c.creds.APIKey)

	return fmt.Sprintf("%s/v1/meeting/%s/calendar/%s/settings?%s",
		c.baseURL, url.PathEscape(conferenceID), url.PathEscape(calendarID), q.Encode())
}

func (c *SettingsClient) do(ctx context.Context, method, conferenceID, calendarID string, body []byte) (*http.Response, error) {
	if conferenceID == "" || calendarID == "" {
		return nil, errors.New("conference id and calendar id are required")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.settingsURL(conferenceID, calendarID), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build settings request: %w", err)
	}
	req.Header.Set("Authorization", "SAPISIDHASH "+c.creds.SAPISIDHash)
	req.Header.Set("Content-Type", ContentTypeJSONProtobuf)
	req.Header.Set("X-Origin", Origin)
	req.Header.Set("X-Goog-Authuser", c.creds.AuthUser)
	req.Header.Set("Cookie", c.creds.Cookies.Header())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings %s failed: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Method: method, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	return resp, nil
}
