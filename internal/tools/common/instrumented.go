package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, invocation
// metrics and a log line. metrics may be nil.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", metrics, logger, handler))
func InstrumentedToolHandler(toolName string, metrics *instrumentation.Metrics, logger *slog.Logger, handler ToolHandler) ToolHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithTool(logger, toolName)

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
		default:
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		logger.Debug("tool invoked",
			logging.Status(status),
			slog.Duration(logging.KeyDuration, duration))

		return result, err
	}
}
