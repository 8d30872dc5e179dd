package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/instrumentation"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		config      MetricsServerConfig
		errContains string
	}{
		{
			name:   "valid config",
			config: MetricsServerConfig{Addr: ":9090", InstrumentationProvider: createTestProvider(t, "prometheus")},
		},
		{
			name:   "default addr",
			config: MetricsServerConfig{InstrumentationProvider: createTestProvider(t, "prometheus")},
		},
		{
			name:        "nil provider",
			config:      MetricsServerConfig{Addr: ":9090"},
			errContains: "instrumentation provider is required",
		},
		{
			name:        "disabled provider",
			config:      MetricsServerConfig{Addr: ":9090", InstrumentationProvider: createDisabledProvider(t)},
			errContains: "instrumentation provider is not enabled",
		},
		{
			name:        "non-prometheus exporter",
			config:      MetricsServerConfig{Addr: ":9090", InstrumentationProvider: createTestProvider(t, "stdout")},
			errContains: "prometheus exporter is not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMetricsServer(tt.config)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, server.Addr())
		})
	}
}

func TestMetricsServer_ServeAndShutdown(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: createTestProvider(t, "prometheus")})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ln) }()

	base := "http://" + ln.Addr().String()
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-serveErr:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: createTestProvider(t, "prometheus")})
	require.NoError(t, err)

	assert.NoError(t, server.Shutdown(context.Background()))
}

func createTestProvider(t *testing.T, exporter string) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "meetlink-test",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: exporter,
		TracingExporter: "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "meetlink-test",
		ServiceVersion: "1.0.0",
	})
	require.NoError(t, err)
	return provider
}
