package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newManualMetrics returns metrics backed by a manual reader so tests can
// inspect what was recorded.
func newManualMetrics(t *testing.T, detailedLabels bool) (*Metrics, *metric.ManualReader) {
	t.Helper()

	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailedLabels)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/api/meet", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/api/meet", 401, 5*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["http_requests_total"]))
	assert.Contains(t, got, "http_request_duration_seconds")
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceSettings, OperationUpdate, StatusError, 500*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["google_api_operations_total"]))
}

func TestMetrics_RecordTokenExchangeAndSession(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordTokenExchange(ctx, OAuthResultSuccess)
	m.RecordTokenExchange(ctx, OAuthResultFailure)
	m.RecordSessionAuth(ctx, OAuthResultSuccess)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["token_exchange_total"]))
	assert.Equal(t, int64(1), sumValue(t, got["session_auth_total"]))
}

func TestMetrics_RecordMeetingProvisioned(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordMeetingProvisioned(ctx, StatusSuccess, "", "", "kim@org.test", time.Second)
	m.RecordMeetingProvisioned(ctx, StatusError, "upstream", "token_exchange", "kim@org.test", time.Second)

	got := collect(t, reader)
	data := got["meetings_provisioned_total"]
	assert.Equal(t, int64(2), sumValue(t, data))

	for _, dp := range data.Data.(metricdata.Sum[int64]).DataPoints {
		_, hasDomain := dp.Attributes.Value(attrDomain)
		assert.False(t, hasDomain, "domain label must be off without detailed labels")
	}
}

func TestMetrics_RecordMeetingProvisioned_DetailedLabels(t *testing.T) {
	m, reader := newManualMetrics(t, true)

	m.RecordMeetingProvisioned(context.Background(), StatusSuccess, "", "", "kim@org.test", time.Second)

	data := collect(t, reader)["meetings_provisioned_total"]
	dps := data.Data.(metricdata.Sum[int64]).DataPoints
	require.Len(t, dps, 1)

	domain, ok := dps[0].Attributes.Value(attrDomain)
	require.True(t, ok)
	assert.Equal(t, "org.test", domain.AsString())
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newManualMetrics(t, false)

	m.RecordToolInvocation(context.Background(), "meet_create_link", StatusSuccess, time.Second)

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, got["mcp_tool_invocations_total"]))
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName: "test-service",
		Enabled:     false,
	})
	require.NoError(t, err)

	m := provider.Metrics()
	require.NotNil(t, m)

	// None of these should panic on the zero-value recorder.
	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusSuccess, time.Millisecond)
	m.RecordTokenExchange(ctx, OAuthResultSuccess)
	m.RecordSessionAuth(ctx, OAuthResultFailure)
	m.RecordMeetingProvisioned(ctx, StatusError, "unknown", "", "", time.Millisecond)
	m.RecordToolInvocation(ctx, "meet_create_link", StatusError, time.Millisecond)

	var nilMetrics *Metrics
	nilMetrics.RecordTokenExchange(ctx, OAuthResultSuccess)
}
