package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/session"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
The registered tools are introspected, so the output always matches the
actual tool definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "" {
				return writeToolDocs(cmd.OutOrStdout())
			}

			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			if err := writeToolDocs(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// docsProvisioner satisfies tool registration; it is never called.
type docsProvisioner struct{}

func (docsProvisioner) Provision(context.Context, *session.Session, provision.MeetingRequest) (*provision.MeetingEvent, error) {
	return nil, fmt.Errorf("not available while generating docs")
}

func writeToolDocs(w io.Writer) error {
	mcpSrv := newMCPServer(docsProvisioner{}, nil, nil)

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	_, err := io.WriteString(w, generateToolsMarkdown(tools))
	return err
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists the tools served on the `/mcp` endpoint of meetlink.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")
	sb.WriteString("All tools act as the signed-in user. Requests to `/mcp` need the same session ")
	sb.WriteString("cookie or bearer ID token as `/api/meet`.\n\n")

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	for _, tool := range tools {
		sb.WriteString(generateToolMarkdown(tool))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s\n\n", tool.Name)

	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			fmt.Fprintf(&sb, "- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr)
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
