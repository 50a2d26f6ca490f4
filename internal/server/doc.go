// Package server provides the shared server state and the HTTP surfaces of
// inboxsizer.
//
// # Key Components
//
// ServerContext owns one review.Service per Google account. Gmail clients are
// created lazily from the account's stored token and cached, so the MCP tools
// and the HTTP API share rate limiters and circuit breakers.
//
// API serves the review JSON endpoints:
//   - GET /api/status: whether the account has a token
//   - GET /api/auth: the consent URL for obtaining one
//   - GET /api/emails?pageToken=: one classified batch
//   - POST /api/label: apply {"labelsToApply":[{"id","label"}]}
//
// HTTPServer mounts the MCP streamable HTTP transport on /mcp next to the
// API and health endpoints, and traces every request with otelhttp.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed for
// Kubernetes probes. MetricsServer exposes Prometheus metrics on a dedicated
// port.
package server
