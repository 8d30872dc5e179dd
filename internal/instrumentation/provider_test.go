package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "meetlink",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	require.NoError(t, err)
	require.NotNil(t, provider)

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics(), "metrics must be usable even when disabled")
	assert.NotNil(t, provider.Tracer("test"))
	assert.False(t, provider.PrometheusEnabled())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name       string
		metrics    string
		tracing    string
		endpoint   string
		wantErr    bool
		wantPromHT bool
	}{
		{name: "prometheus", metrics: ExporterPrometheus, tracing: ExporterNone, wantPromHT: true},
		{name: "stdout", metrics: ExporterStdout, tracing: ExporterStdout},
		{name: "invalid metrics exporter", metrics: "statsd", tracing: ExporterNone, wantErr: true},
		{name: "invalid tracing exporter", metrics: ExporterPrometheus, tracing: "jaeger", wantErr: true},
		{name: "otlp tracing without endpoint", metrics: ExporterPrometheus, tracing: ExporterOTLP, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:     "meetlink",
				ServiceVersion:  "1.0.0",
				Enabled:         true,
				MetricsExporter: tt.metrics,
				TracingExporter: tt.tracing,
				OTLPEndpoint:    tt.endpoint,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = provider.Shutdown(ctx) }()

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.Equal(t, tt.wantPromHT, provider.PrometheusEnabled())
		})
	}
}

func TestProvider_AuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		AuditLogging: AuditLoggingConfig{Enabled: true, IncludePII: true},
	})
	require.NoError(t, err)

	record := NewProvisionRecord(SourceHTTP, "kim@org.test").CompleteWithError("upstream", "token_exchange", errors.New("boom"))
	provider.AuditLogger(logger).LogProvision(record)

	assert.Contains(t, buf.String(), `"user":"kim@org.test"`)
	assert.Contains(t, buf.String(), `"step":"token_exchange"`)
}
