package instrumentation

import (
	"errors"
	"fmt"
	"slices"
)

// Exporter names accepted in Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	ServiceOAuth    = "oauth2"
	ServiceCalendar = "calendar"
	ServiceSettings = "meet_settings"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config controls the OpenTelemetry provider. It is filled from the
// application configuration; this package reads no environment itself.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the pod name when empty.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled false yields a provider with no-op meters and tracers.
	Enabled bool

	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	OTLPInsecure bool

	TraceSamplingRate float64

	PrometheusEndpoint string

	// DetailedLabels adds the caller's email domain to provisioning metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled turns on one audit record per provisioning attempt.
	Enabled bool

	// IncludePII logs the caller's email in clear instead of its hash.
	// Audit logs with PII must be stored with restricted access.
	IncludePII bool
}

// DefaultConfig returns the defaults: Prometheus metrics, no tracing and
// audit records without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:        "meetlink",
		ServiceVersion:     "unknown",
		Enabled:            true,
		MetricsExporter:    ExporterPrometheus,
		TracingExporter:    ExporterNone,
		TraceSamplingRate:  0.1,
		PrometheusEndpoint: "/metrics",
		AuditLogging: AuditLoggingConfig{
			Enabled: true,
		},
	}
}

// Validate checks exporter names, the sampling rate and that an OTLP
// endpoint is present when an OTLP exporter is selected.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}
	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when an OTLP exporter is selected"))
	}

	return errors.Join(errs...)
}
