package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/session"
)

const (
	// MCPPath is the streamable-HTTP MCP endpoint.
	MCPPath = "/mcp"

	authPrefix = "/auth/"
)

// RateLimitConfig configures per-client-IP limiting of /api/meet, /auth/
// and /mcp. A zero Rate disables limiting.
type RateLimitConfig struct {
	Rate       int
	Burst      int
	TrustProxy bool
}

// Config holds the collaborators of the application server.
type Config struct {
	Addr string

	Provisioner Provisioner
	Verifier    session.Verifier

	// Auth registers the login flow under /auth/. Optional.
	Auth *session.Authenticator

	// MCPServer is served on /mcp behind the session middleware. Optional.
	MCPServer *mcpserver.MCPServer

	Health    *HealthChecker
	RateLimit RateLimitConfig
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
}

// Server is the application HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	health     *HealthChecker
	limiter    *RateLimiter
	logger     *slog.Logger
}

// New assembles the routes:
//
//	POST /api/meet        meeting provisioning
//	/auth/login|callback|logout  OIDC login flow
//	/mcp                  MCP tools, session required
//	/healthz, /readyz, /healthz/detailed
func New(cfg Config) (*Server, error) {
	if cfg.Provisioner == nil {
		return nil, errors.New("provisioner is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("session verifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthChecker(false)
	}

	s := &Server{health: cfg.Health, logger: cfg.Logger}
	if cfg.RateLimit.Rate > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
	}

	attach := session.Attach(cfg.Verifier, cfg.Logger)
	route := func(pattern string, h http.Handler) http.Handler {
		return instrument(pattern, cfg.Metrics, cfg.Logger, recoverPanics(cfg.Logger, s.limiter.Middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle(MeetPath, route(MeetPath, attach(NewMeetHandler(cfg.Provisioner, cfg.Logger))))

	if cfg.Auth != nil {
		authMux := http.NewServeMux()
		cfg.Auth.RegisterRoutes(authMux)
		mux.Handle(authPrefix, route(authPrefix, authMux))
	}

	if cfg.MCPServer != nil {
		mux.Handle(MCPPath, route(MCPPath, attach(session.Require(NewMCPHandler(cfg.MCPServer)))))
	}

	cfg.Health.RegisterHealthEndpoints(mux)

	s.handler = mux
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Provisioning makes several sequential upstream calls.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// NewMCPHandler serves mcpSrv over streamable HTTP. The caller's session is
// carried from the HTTP request into tool handlers.
func NewMCPHandler(mcpSrv *mcpserver.MCPServer) http.Handler {
	return mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(MCPPath),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if sess, ok := session.FromContext(r.Context()); ok {
				return session.WithSession(ctx, sess)
			}
			return ctx
		}),
	)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown marks the server as draining and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	s.logger.Info("shutting down HTTP server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
