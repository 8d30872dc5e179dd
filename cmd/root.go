package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetlink application
var rootCmd = &cobra.Command{
	Use:   "meetlink",
	Short: "Creates Google Meet meetings in per-user calendars",
	Long: `meetlink creates one-hour Google Meet meetings on behalf of signed-in users.

Each user gets a dedicated calendar in the organization's Google Workspace.
The meeting is created there with the user as attendee and, when the
settings API is configured, as moderator with breakout rooms.

It can run as:
  - An HTTP server with an MCP endpoint (default)
  - A one-shot CLI for operators (create)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetlink version %s\n" .Version}}`)

	// If no subcommand is provided, run the server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
