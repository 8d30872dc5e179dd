// Package server exposes meetlink over HTTP.
//
// Server routes POST /api/meet to the provisioning pipeline, mounts the
// OIDC login flow under /auth/, serves the MCP tools on /mcp and answers
// Kubernetes health checks. Every application route is wrapped with panic
// recovery, request logging, HTTP metrics and an optional per-IP token
// bucket rate limit.
//
// MetricsServer serves Prometheus metrics on a separate port.
//
// Error responses are JSON objects with a single "message" field. Upstream
// failures always carry the same generic message; the failing step is only
// logged.
package server
