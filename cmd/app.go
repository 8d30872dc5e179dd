package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/calendar"
	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/server"
	"github.com/teemow/meetlink/internal/tools/meet_tools"
)

const upstreamTimeout = 30 * time.Second

// loadConfig reads the configuration and applies --debug.
func loadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
		File:   cfg.File,
	})
}

func newInstrumentation(ctx context.Context, cfg config.TelemetryConfig) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceName = cfg.ServiceName
	instrConfig.ServiceVersion = version
	instrConfig.K8sNamespace = cfg.K8sNamespace
	instrConfig.K8sPodName = cfg.K8sPodName
	instrConfig.Enabled = cfg.Enabled
	instrConfig.MetricsExporter = cfg.MetricsExporter
	instrConfig.TracingExporter = cfg.TracingExporter
	instrConfig.OTLPEndpoint = cfg.OTLPEndpoint
	instrConfig.OTLPInsecure = cfg.OTLPInsecure
	instrConfig.TraceSamplingRate = cfg.TraceSamplingRate
	instrConfig.DetailedLabels = cfg.DetailedLabels
	instrConfig.AuditLogging = instrumentation.AuditLoggingConfig{
		Enabled:    cfg.AuditEnabled,
		IncludePII: cfg.AuditIncludePII,
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newProvisioner wires the provisioning pipeline from configuration.
func newProvisioner(cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) (*provision.Provisioner, error) {
	sa, err := google.LoadServiceAccount(cfg.Google.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tokenURL := cfg.Google.TokenURL
	if tokenURL == "" {
		tokenURL = sa.TokenURL()
	}
	signer, err := google.NewAssertionSigner(sa, cfg.Google.DelegatedSubject, tokenURL)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: upstreamTimeout}

	var tokens google.TokenProvider = google.NewServiceAccountTokenProviderWithMetrics(
		signer, google.NewTokenExchanger(tokenURL, httpClient), provider.Metrics())
	if cfg.Google.TokenCache {
		tokens = google.NewCachingTokenProvider(tokens)
	}

	loc, err := cfg.Meeting.Location()
	if err != nil {
		return nil, err
	}

	deps := provision.Dependencies{
		Tokens: tokens,
		Calendars: func(ctx context.Context, token *oauth2.Token) (provision.CalendarService, error) {
			client, err := calendar.NewClientForToken(ctx, token, httpClient)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Metrics: provider.Metrics(),
		Audit:   provider.AuditLogger(logger),
		Logger:  logger,
	}

	if cfg.Settings.Enabled() {
		s := cfg.Settings
		deps.Settings = meet.NewSettingsClient(s.BaseURL, meet.Credentials{
			APIKey:      s.APIKey,
			SAPISIDHash: s.SAPISIDHash,
			AuthUser:    s.AuthUser,
			Cookies: meet.Cookies{
				SID:     s.Cookies.SID,
				HSID:    s.Cookies.HSID,
				SSID:    s.Cookies.SSID,
				APISID:  s.Cookies.APISID,
				SAPISID: s.Cookies.SAPISID,
			},
		}, httpClient)
	} else {
		logger.Warn("meeting settings API credentials not set, moderation and breakout rooms are disabled")
	}

	return provision.New(deps, provision.Options{
		Location:        loc,
		CalendarPrefix:  cfg.Meeting.CalendarPrefix,
		RequestIDPrefix: cfg.Meeting.RequestIDPrefix,
	})
}

// newMCPServer creates the MCP server with every meetlink tool registered.
func newMCPServer(p server.Provisioner, metrics *instrumentation.Metrics, logger *slog.Logger) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("meetlink", version,
		mcpserver.WithToolCapabilities(true),
	)
	meet_tools.RegisterMeetTools(mcpSrv, p, metrics, logger)
	return mcpSrv
}
