package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/meetlink/internal/instrumentation"
)

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	m, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	require.NoError(t, err)
	return m, reader
}

func toolInvocations(t *testing.T, reader *metric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestInstrumentedToolHandler(t *testing.T) {
	tests := []struct {
		name    string
		result  *mcp.CallToolResult
		err     error
		wantErr bool
	}{
		{name: "success", result: mcp.NewToolResultText("ok")},
		{name: "tool error result", result: mcp.NewToolResultError("bad input")},
		{name: "handler error", err: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics, reader := newTestMetrics(t)

			called := false
			wrapped := InstrumentedToolHandler("test_tool", metrics, nil, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				called = true
				return tt.result, tt.err
			})

			result, err := wrapped(context.Background(), mcp.CallToolRequest{})
			assert.True(t, called)
			assert.Equal(t, tt.result, result)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, int64(1), toolInvocations(t, reader))
		})
	}
}

func TestInstrumentedToolHandler_NilMetrics(t *testing.T) {
	wrapped := InstrumentedToolHandler("test_tool", nil, nil, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
