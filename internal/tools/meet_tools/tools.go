package meet_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/server"
	"github.com/teemow/meetlink/internal/session"
	"github.com/teemow/meetlink/internal/tools/common"
)

// CreateLinkTool is the name of the provisioning tool.
const CreateLinkTool = "meet_create_link"

// RegisterMeetTools registers the meeting tools with the MCP server. The
// caller's session must be in the tool context.
func RegisterMeetTools(s *mcpserver.MCPServer, p server.Provisioner, metrics *instrumentation.Metrics, logger *slog.Logger) {
	createLinkTool := mcp.NewTool(CreateLinkTool,
		mcp.WithDescription("Create a one-hour Google Meet meeting in the caller's calendar and return the event with its Meet link. "+
			"The caller is invited and, when configured, set up as moderator with breakout rooms."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Meeting title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, RFC3339 (e.g., '2024-03-01T10:00:00+09:00') or local 'YYYY-MM-DDTHH:MM' in the meeting time zone"),
		),
		mcp.WithBoolean("repeat",
			mcp.Description("Repeat the meeting weekly"),
		),
		mcp.WithString("repeatEnd",
			mcp.Description("Last day of the weekly series (YYYY-MM-DD). Ignored unless repeat is true."),
		),
	)

	s.AddTool(createLinkTool, common.InstrumentedToolHandler(CreateLinkTool, metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateLink(ctx, request, p)
		}))
}

func handleCreateLink(ctx context.Context, request mcp.CallToolRequest, p server.Provisioner) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := provision.MeetingRequest{Source: instrumentation.SourceMCP}
	req.Title, _ = args["name"].(string)
	req.Start, _ = args["start"].(string)
	req.Repeat, _ = args["repeat"].(bool)
	req.RepeatEnd, _ = args["repeatEnd"].(string)

	sess, _ := session.FromContext(ctx)

	event, err := p.Provision(ctx, sess, req)
	if err != nil {
		return mcp.NewToolResultError(provision.PublicMessage(err)), nil
	}

	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Meeting created: %s\n\n%s", event.MeetURL, data)), nil
}
