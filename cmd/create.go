package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/session"
)

type createOptions struct {
	configFile string
	debug      bool

	name     string
	email    string
	linkedID string

	title     string
	start     string
	repeatEnd string
}

func newCreateCmd() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting for a user from the command line",
		Long: `Run the provisioning pipeline once for the identity given by flags and
print the created event as JSON.

This is an operator tool: no session is checked. The user is invited and,
when the settings API is configured, made moderator.

Example:
  meetlink create --name Kim --email kim@example.com \
    --title "Go study" --start 2024-03-01T10:00 --repeat-end 2024-03-29`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name of the user")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address of the user")
	cmd.Flags().StringVar(&opts.linkedID, "linked-id", "", "Linked Google account id, made moderator")
	cmd.Flags().StringVar(&opts.title, "title", "", "Meeting title")
	cmd.Flags().StringVar(&opts.start, "start", "", "Start time (RFC3339 or YYYY-MM-DDTHH:MM in the meeting time zone)")
	cmd.Flags().StringVar(&opts.repeatEnd, "repeat-end", "", "Repeat weekly until this date (YYYY-MM-DD)")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func runCreate(ctx context.Context, out io.Writer, opts createOptions) error {
	cfg, err := loadConfig(opts.configFile, opts.debug)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to stderr; stdout carries only the event.
	logger, closer, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	provider, err := newInstrumentation(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	provisioner, err := newProvisioner(cfg, provider, logger)
	if err != nil {
		return err
	}

	event, err := provisioner.Provision(ctx,
		&session.Session{Name: opts.name, Email: opts.email, LinkedID: opts.linkedID},
		provision.MeetingRequest{
			Title:     opts.title,
			Start:     opts.start,
			Repeat:    opts.repeatEnd != "",
			RepeatEnd: opts.repeatEnd,
			Source:    instrumentation.SourceCLI,
		})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(event)
}

