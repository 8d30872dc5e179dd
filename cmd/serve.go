package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/server"
	"github.com/teemow/meetlink/internal/session"
)

type serveOptions struct {
	configFile  string
	debug       bool
	httpAddr    string
	metricsAddr string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the meeting provisioning API",
		Long: `Start the HTTP server.

Routes:
  POST /api/meet                 create a meeting for the signed-in user
  /auth/login, /auth/callback    OIDC sign-in
  /auth/logout                   sign out
  /mcp                           MCP tools (session required)
  /healthz, /readyz              health checks

Prometheus metrics are served on a separate port (--metrics-addr).

Configuration is read from --config (YAML) and the environment; flags win.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configFile, opts.debug)
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg, opts)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP listen address")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics listen address")

	return cmd
}

// applyServeFlags lets explicitly set flags override file and environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOptions) {
	if cmd.Flags().Changed("http-addr") {
		cfg.Server.Addr = opts.httpAddr
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Server.MetricsAddr = opts.metricsAddr
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := newInstrumentation(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics := provider.Metrics()

	provisioner, err := newProvisioner(cfg, provider, logger)
	if err != nil {
		return err
	}

	auth, err := session.Discover(ctx, session.Options{
		Issuer:             cfg.OIDC.Issuer,
		ClientID:           cfg.OIDC.ClientID,
		ClientSecret:       cfg.OIDC.ClientSecret,
		BaseURL:            cfg.Server.BaseURL,
		CookieName:         cfg.OIDC.CookieName,
		CookieSecure:       cfg.OIDC.CookieSecure,
		LinkedAccountClaim: cfg.OIDC.LinkedAccountClaim,
		SessionKey:         []byte(cfg.OIDC.SessionSecret),
		SessionMaxAge:      cfg.OIDC.SessionMaxAge,
	}, metrics, logger)
	if err != nil {
		return err
	}

	app, err := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		Provisioner: provisioner,
		Verifier:    auth.Verifier(),
		Auth:        auth,
		MCPServer:   newMCPServer(provisioner, metrics, logger),
		Health:      server.NewHealthChecker(cfg.Settings.Enabled()),
		RateLimit: server.RateLimitConfig{
			Rate:       cfg.Server.RateLimitRate,
			Burst:      cfg.Server.RateLimitBurst,
			TrustProxy: cfg.Server.TrustProxy,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if cfg.Server.MetricsEnabled && provider.PrometheusEnabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreServerClosed(app.Start())
	})
	if metricsServer != nil {
		g.Go(func() error {
			return ignoreServerClosed(metricsServer.Start())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()

		errs := []error{app.Shutdown(shutdownCtx)}
		if metricsServer != nil {
			errs = append(errs, metricsServer.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	logger.Info("meetlink started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("time_zone", cfg.Meeting.TimeZone),
		slog.Bool("settings_enabled", cfg.Settings.Enabled()),
		slog.Bool("metrics_enabled", metricsServer != nil))

	return g.Wait()
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
