package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Provisioning entry points recorded on audit records.
const (
	SourceHTTP = "http"
	SourceMCP  = "mcp"
	SourceCLI  = "cli"
)

// ProvisionRecord captures one meeting provisioning attempt for audit logging.
//
// # Privacy Considerations
//
// UserEmail is PII. LogAttrs only emits its domain; LogAuditAttrs emits the
// full address and should go to an access-controlled stream.
type ProvisionRecord struct {
	// Source is the entry point (http, mcp, cli).
	Source string

	UserEmail string

	CalendarID   string
	ConferenceID string
	EventID      string

	// FailedStep and Kind are set only on failure.
	FailedStep string
	Kind       string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewProvisionRecord creates a record with timing started.
func NewProvisionRecord(source, email string) *ProvisionRecord {
	return &ProvisionRecord{
		Source:    source,
		UserEmail: email,
		StartTime: time.Now(),
	}
}

// UserDomain returns the domain portion of the user's email.
func (r *ProvisionRecord) UserDomain() string {
	return ExtractUserDomain(r.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (r *ProvisionRecord) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// WithSpanContext extracts trace context from the current span.
func (r *ProvisionRecord) WithSpanContext(ctx context.Context) *ProvisionRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.TraceID = span.SpanContext().TraceID().String()
		r.SpanID = span.SpanContext().SpanID().String()
	}
	return r
}

// CompleteSuccess marks the attempt as successful.
func (r *ProvisionRecord) CompleteSuccess(calendarID, conferenceID, eventID string) *ProvisionRecord {
	r.Duration = time.Since(r.StartTime)
	r.Success = true
	r.CalendarID = calendarID
	r.ConferenceID = conferenceID
	r.EventID = eventID
	return r
}

// CompleteWithError marks the attempt as failed at the given step.
func (r *ProvisionRecord) CompleteWithError(kind, step string, err error) *ProvisionRecord {
	r.Duration = time.Since(r.StartTime)
	r.Success = false
	r.Kind = kind
	r.FailedStep = step
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (r *ProvisionRecord) commonAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("source", r.Source),
		slog.Duration("duration", r.Duration),
		slog.Bool("success", r.Success),
	}
	if r.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar_id", r.CalendarID))
	}
	if r.ConferenceID != "" {
		attrs = append(attrs, slog.String("conference_id", r.ConferenceID))
	}
	if r.FailedStep != "" {
		attrs = append(attrs, slog.String("step", r.FailedStep))
	}
	if r.Kind != "" {
		attrs = append(attrs, slog.String("kind", r.Kind))
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}
	return attrs
}

// LogAttrs returns slog attributes with the user reduced to a domain.
func (r *ProvisionRecord) LogAttrs() []slog.Attr {
	return append([]slog.Attr{slog.String("user_domain", r.UserDomain())}, r.commonAttrs()...)
}

// LogAuditAttrs returns slog attributes including the full user email
// and the event and span identifiers.
//
// # Security Warning
//
// This method includes PII. Route it to storage with appropriate access
// controls.
func (r *ProvisionRecord) LogAuditAttrs() []slog.Attr {
	attrs := append([]slog.Attr{slog.String("user", r.UserEmail)}, r.commonAttrs()...)
	if r.EventID != "" {
		attrs = append(attrs, slog.String("event_id", r.EventID))
	}
	if r.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	return attrs
}

// AuditLogger provides structured audit logging for provisioning attempts.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// PII is excluded by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full email addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogProvision logs a completed provisioning attempt. Successful attempts
// are logged at info, failures at warn.
func (al *AuditLogger) LogProvision(r *ProvisionRecord) {
	if al == nil || !al.enabled || r == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = r.LogAuditAttrs()
	} else {
		attrs = r.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if r.Success {
		al.logger.Info("meeting_provisioned", args...)
	} else {
		al.logger.Warn("meeting_provision_failed", args...)
	}
}
