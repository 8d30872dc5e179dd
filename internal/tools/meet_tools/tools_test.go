package meet_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/session"
)

type fakeProvisioner struct {
	gotSess *session.Session
	gotReq  provision.MeetingRequest
	event   *provision.MeetingEvent
	err     error
}

func (f *fakeProvisioner) Provision(_ context.Context, sess *session.Session, req provision.MeetingRequest) (*provision.MeetingEvent, error) {
	f.gotSess, f.gotReq = sess, req
	return f.event, f.err
}

func callTool(t *testing.T, p *fakeProvisioner, ctx context.Context, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	s := mcpserver.NewMCPServer("meetlink-test", "0.0.0", mcpserver.WithToolCapabilities(false))
	RegisterMeetTools(s, p, nil, nil)

	tool, ok := s.ListTools()[CreateLinkTool]
	require.True(t, ok, "tool registered")

	req := mcp.CallToolRequest{}
	req.Params.Name = CreateLinkTool
	req.Params.Arguments = args

	result, err := tool.Handler(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegisterMeetTools_Schema(t *testing.T) {
	s := mcpserver.NewMCPServer("meetlink-test", "0.0.0")
	RegisterMeetTools(s, &fakeProvisioner{}, nil, nil)

	tool := s.ListTools()[CreateLinkTool]
	require.NotNil(t, tool)
	assert.ElementsMatch(t, []string{"name", "start"}, tool.Tool.InputSchema.Required)
	assert.Contains(t, tool.Tool.InputSchema.Properties, "repeat")
	assert.Contains(t, tool.Tool.InputSchema.Properties, "repeatEnd")
}

func TestCreateLink_Success(t *testing.T) {
	kim := &session.Session{Name: "Kim", Email: "kim@org.test"}
	p := &fakeProvisioner{event: &provision.MeetingEvent{
		ID:      "evt1",
		MeetURL: "https://meet.google.com/abc-defg-hij",
	}}

	result := callTool(t, p, session.WithSession(context.Background(), kim), map[string]any{
		"name":      "Go study",
		"start":     "2024-03-01T10:00",
		"repeat":    true,
		"repeatEnd": "2024-03-29",
	})

	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "https://meet.google.com/abc-defg-hij")
	assert.Contains(t, text, `"id": "evt1"`)

	assert.Same(t, kim, p.gotSess)
	assert.Equal(t, provision.MeetingRequest{
		Title:     "Go study",
		Start:     "2024-03-01T10:00",
		Repeat:    true,
		RepeatEnd: "2024-03-29",
		Source:    "mcp",
	}, p.gotReq)
}

func TestCreateLink_Errors(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{
			name: "no session",
			ctx:  context.Background(),
			err:  &provision.Error{Kind: provision.KindUnauthenticated, Step: provision.StepValidate},
			want: "authentication required",
		},
		{
			name: "upstream",
			ctx:  session.WithSession(context.Background(), &session.Session{Name: "Kim", Email: "kim@org.test"}),
			err:  &provision.Error{Kind: provision.KindUpstream, Step: provision.StepCreateEvent, Err: errors.New("quota")},
			want: "failed to create meeting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvisioner{err: tt.err}
			result := callTool(t, p, tt.ctx, map[string]any{"name": "x", "start": "2024-03-01T10:00"})

			assert.True(t, result.IsError)
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}
