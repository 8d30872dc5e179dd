package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied before the config file and environment are read.
const (
	DefaultHTTPAddr           = ":8080"
	DefaultMetricsAddr        = ":9090"
	DefaultTimeZone           = "Asia/Seoul"
	DefaultCalendarPrefix     = "스터디"
	DefaultRequestIDPrefix    = "ycc-study-"
	DefaultLinkedAccountClaim = "google"
	DefaultSessionCookie      = "meetlink_session"
	DefaultSessionMaxAge      = 30 * 24 * time.Hour
	MinSessionSecretLength    = 32
	DefaultSettingsBaseURL    = "https://calendar-pa.clients6.google.com"
	DefaultRateLimitRate      = 5
	DefaultRateLimitBurst     = 10
)

// Config is the full runtime configuration. It is built once at startup and
// handed to constructors; nothing reads configuration from globals.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OIDC     OIDCConfig     `yaml:"oidc"`
	Google   GoogleConfig   `yaml:"google"`
	Settings SettingsConfig `yaml:"settings"`
	Meeting  MeetingConfig  `yaml:"meeting"`
	Logging  LoggingConfig  `yaml:"logging"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`

	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsAddr    string `yaml:"metrics_addr"`

	// RateLimitRate is requests per second per client IP; 0 disables limiting.
	RateLimitRate  int  `yaml:"rate_limit_rate"`
	RateLimitBurst int  `yaml:"rate_limit_burst"`
	TrustProxy     bool `yaml:"trust_proxy"`
}

// OIDCConfig configures the identity provider used for sessions.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// LinkedAccountClaim names the ID token claim carrying the caller's
	// linked Google account id.
	LinkedAccountClaim string `yaml:"linked_account_claim"`

	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`

	// SessionSecret signs session cookies. Without it sessions end when the
	// process restarts.
	SessionSecret string        `yaml:"session_secret"`
	SessionMaxAge time.Duration `yaml:"session_max_age"`
}

// GoogleConfig configures the service account used for Calendar access.
type GoogleConfig struct {
	CredentialsFile  string `yaml:"credentials_file"`
	DelegatedSubject string `yaml:"delegated_subject"`

	// TokenURL overrides the token endpoint from the credentials file.
	TokenURL string `yaml:"token_url"`

	// TokenCache keeps the access token between requests until it expires.
	TokenCache bool `yaml:"token_cache"`
}

// SettingsConfig configures the internal meeting settings API.
type SettingsConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	SAPISIDHash string  `yaml:"sapisid_hash"`
	AuthUser    string  `yaml:"authuser"`
	Cookies     Cookies `yaml:"cookies"`
}

// Cookies are the browser session cookies of the administrative account.
type Cookies struct {
	SID     string `yaml:"sid"`
	HSID    string `yaml:"hsid"`
	SSID    string `yaml:"ssid"`
	APISID  string `yaml:"apisid"`
	SAPISID string `yaml:"sapisid"`
}

// MeetingConfig holds meeting defaults.
type MeetingConfig struct {
	TimeZone        string `yaml:"time_zone"`
	CalendarPrefix  string `yaml:"calendar_prefix"`
	RequestIDPrefix string `yaml:"request_id_prefix"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TelemetryConfig selects metrics and tracing exporters and audit logging.
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServiceName     string `yaml:"service_name"`
	MetricsExporter string `yaml:"metrics_exporter"`
	TracingExporter string `yaml:"tracing_exporter"`

	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	OTLPInsecure      bool    `yaml:"otlp_insecure"`
	TraceSamplingRate float64 `yaml:"trace_sampling_rate"`

	DetailedLabels bool `yaml:"detailed_labels"`

	AuditEnabled    bool `yaml:"audit_enabled"`
	AuditIncludePII bool `yaml:"audit_include_pii"`

	K8sNamespace string `yaml:"-"`
	K8sPodName   string `yaml:"-"`
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultHTTPAddr,
			MetricsEnabled: true,
			MetricsAddr:    DefaultMetricsAddr,
			RateLimitRate:  DefaultRateLimitRate,
			RateLimitBurst: DefaultRateLimitBurst,
		},
		OIDC: OIDCConfig{
			LinkedAccountClaim: DefaultLinkedAccountClaim,
			CookieName:         DefaultSessionCookie,
			CookieSecure:       true,
			SessionMaxAge:      DefaultSessionMaxAge,
		},
		Settings: SettingsConfig{
			BaseURL: DefaultSettingsBaseURL,
		},
		Meeting: MeetingConfig{
			TimeZone:        DefaultTimeZone,
			CalendarPrefix:  DefaultCalendarPrefix,
			RequestIDPrefix: DefaultRequestIDPrefix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:           true,
			ServiceName:       "meetlink",
			MetricsExporter:   "prometheus",
			TracingExporter:   "none",
			TraceSamplingRate: 0.1,
			AuditEnabled:      true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields with any environment variables that are set.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Server.BaseURL, "BASE_URL")
	setBool(&c.Server.MetricsEnabled, "METRICS_ENABLED")
	setString(&c.Server.MetricsAddr, "METRICS_ADDR")
	setInt(&c.Server.RateLimitRate, "RATE_LIMIT_RATE")
	setInt(&c.Server.RateLimitBurst, "RATE_LIMIT_BURST")
	setBool(&c.Server.TrustProxy, "TRUST_PROXY")

	setString(&c.OIDC.Issuer, "OIDC_ISSUER")
	setString(&c.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&c.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&c.OIDC.LinkedAccountClaim, "OIDC_LINKED_ACCOUNT_CLAIM")
	setString(&c.OIDC.CookieName, "SESSION_COOKIE_NAME")
	setBool(&c.OIDC.CookieSecure, "SESSION_COOKIE_SECURE")
	setString(&c.OIDC.SessionSecret, "SESSION_SECRET")
	setDuration(&c.OIDC.SessionMaxAge, "SESSION_MAX_AGE")

	setString(&c.Google.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	// GOOGLE_CLIENT_EMAIL is the historical name of the delegated user.
	setString(&c.Google.DelegatedSubject, "GOOGLE_CLIENT_EMAIL")
	setString(&c.Google.DelegatedSubject, "GOOGLE_DELEGATED_SUBJECT")
	setString(&c.Google.TokenURL, "GOOGLE_TOKEN_URL")
	setBool(&c.Google.TokenCache, "GOOGLE_TOKEN_CACHE")

	setString(&c.Settings.BaseURL, "GOOGLE_SETTINGS_BASE_URL")
	setString(&c.Settings.APIKey, "GOOGLE_API_KEY")
	setString(&c.Settings.SAPISIDHash, "GOOGLE_ADMIN_SAPISID_HASH")
	setString(&c.Settings.AuthUser, "GOOGLE_ADMIN_AUTHUSER")
	setString(&c.Settings.Cookies.SID, "GOOGLE_ADMIN_SID")
	setString(&c.Settings.Cookies.HSID, "GOOGLE_ADMIN_HSID")
	setString(&c.Settings.Cookies.SSID, "GOOGLE_ADMIN_SSID")
	setString(&c.Settings.Cookies.APISID, "GOOGLE_ADMIN_APISID")
	setString(&c.Settings.Cookies.SAPISID, "GOOGLE_ADMIN_SAPISID")

	setString(&c.Meeting.TimeZone, "MEET_TIME_ZONE")
	setString(&c.Meeting.CalendarPrefix, "MEET_CALENDAR_PREFIX")
	setString(&c.Meeting.RequestIDPrefix, "MEET_REQUEST_ID_PREFIX")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.File, "LOG_FILE")

	t := &c.Telemetry
	setBool(&t.Enabled, "INSTRUMENTATION_ENABLED")
	setString(&t.ServiceName, "OTEL_SERVICE_NAME")
	setString(&t.MetricsExporter, "METRICS_EXPORTER")
	setString(&t.TracingExporter, "TRACING_EXPORTER")
	setString(&t.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&t.OTLPInsecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setFloat(&t.TraceSamplingRate, "OTEL_TRACES_SAMPLER_ARG")
	setBool(&t.DetailedLabels, "METRICS_DETAILED_LABELS")
	setBool(&t.AuditEnabled, "AUDIT_LOGGING_ENABLED")
	setBool(&t.AuditIncludePII, "AUDIT_LOGGING_INCLUDE_PII")
	setString(&t.K8sNamespace, "POD_NAMESPACE")
	setString(&t.K8sNamespace, "K8S_NAMESPACE")
	setString(&t.K8sPodName, "HOSTNAME")
	setString(&t.K8sPodName, "K8S_POD_NAME")
}

// Validate checks the settings needed to provision meetings. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Google.CredentialsFile == "" {
		errs = append(errs, errors.New("google credentials file is required (GOOGLE_CREDENTIALS_FILE)"))
	}
	if c.Google.DelegatedSubject == "" {
		errs = append(errs, errors.New("delegated subject is required (GOOGLE_DELEGATED_SUBJECT)"))
	}
	if _, err := c.Meeting.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Meeting.CalendarPrefix == "" {
		errs = append(errs, errors.New("calendar prefix must not be empty"))
	}
	if c.Settings.Enabled() {
		if missing := c.Settings.missing(); len(missing) > 0 {
			errs = append(errs, fmt.Errorf("settings API is partially configured, missing: %s", strings.Join(missing, ", ")))
		}
	}
	if c.Server.RateLimitRate < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit values must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateServer checks the settings needed by the HTTP server in addition
// to those checked by Validate.
func (c *Config) ValidateServer() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.OIDC.Issuer == "" {
		errs = append(errs, errors.New("OIDC issuer is required (OIDC_ISSUER)"))
	}
	if c.OIDC.ClientID == "" {
		errs = append(errs, errors.New("OIDC client id is required (OIDC_CLIENT_ID)"))
	}
	if c.OIDC.CookieName == "" {
		errs = append(errs, errors.New("session cookie name must not be empty"))
	}
	if c.OIDC.SessionSecret != "" && len(c.OIDC.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("session secret must be at least %d bytes (SESSION_SECRET)", MinSessionSecretLength))
	}
	if c.OIDC.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("session max age must be positive (SESSION_MAX_AGE)"))
	}
	return errors.Join(errs...)
}

// Location resolves the configured meeting time zone.
func (m MeetingConfig) Location() (*time.Location, error) {
	if m.TimeZone == "" {
		return nil, errors.New("meeting time zone must not be empty")
	}
	loc, err := time.LoadLocation(m.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting time zone %q: %w", m.TimeZone, err)
	}
	return loc, nil
}

// Enabled reports whether any internal settings credential is configured.
func (s SettingsConfig) Enabled() bool {
	return s.SAPISIDHash != "" || s.Cookies.SID != "" || s.Cookies.SAPISID != ""
}

func (s SettingsConfig) missing() []string {
	var missing []string
	check := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check(s.BaseURL, "GOOGLE_SETTINGS_BASE_URL")
	check(s.APIKey, "GOOGLE_API_KEY")
	check(s.SAPISIDHash, "GOOGLE_ADMIN_SAPISID_HASH")
	check(s.Cookies.SID, "GOOGLE_ADMIN_SID")
	check(s.Cookies.HSID, "GOOGLE_ADMIN_HSID")
	check(s.Cookies.SSID, "GOOGLE_ADMIN_SSID")
	check(s.Cookies.APISID, "GOOGLE_ADMIN_APISID")
	check(s.Cookies.SAPISID, "GOOGLE_ADMIN_SAPISID")
	return missing
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*dst = parsed
		}
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			*dst = parsed
		}
	}
}
