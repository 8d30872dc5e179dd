// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for meetlink.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: requests by method, path and status
//   - http_request_duration_seconds: request latency
//
// Google APIs:
//   - google_api_operations_total: calls by service (oauth2, calendar,
//     meet_settings), operation and status
//   - google_api_operation_duration_seconds: call latency
//   - token_exchange_total: service account token exchanges by result
//
// Sessions and provisioning:
//   - session_auth_total: OIDC login callbacks by result
//   - meetings_provisioned_total: provisioning attempts by status, error kind
//     and failed step
//   - meeting_provision_duration_seconds: end-to-end provisioning latency
//
// MCP:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created per provisioning attempt (meet.provision), per Google
// call (google.<service>.<operation>) and per MCP tool call (tool.<name>).
//
// # Configuration
//
// Config is a plain struct. The config package fills it from the YAML file
// and from INSTRUMENTATION_ENABLED, METRICS_EXPORTER, TRACING_EXPORTER,
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG and related
// variables.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar,
//		instrumentation.OperationCreate, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
