// Package cmd implements the command-line interface for meetlink.
//
// This package provides the following commands:
//   - serve: Start the HTTP server (provisioning API, login flow, MCP, health)
//   - create: Provision one meeting for an identity given by flags
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
