package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusDegraded     = "degraded"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"

	breakerOpen = "open"
)

// HealthChecker serves liveness, readiness and a detailed review status.
// An open Gmail circuit breaker degrades the detailed status but never fails
// readiness: offline classification and the MCP resources keep working.
type HealthChecker struct {
	ready   atomic.Bool
	sc      *ServerContext
	started time.Time

	// breakers reports circuit breaker state per account.
	breakers func() map[string]string
}

// NewHealthChecker creates a HealthChecker that starts out ready. sc may be
// nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	if sc != nil {
		h.breakers = sc.BreakerStates
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status         string            `json:"status"`
	Uptime         string            `json:"uptime"`
	Account        string            `json:"account,omitempty"`
	HasToken       bool              `json:"hasToken"`
	HistoryEnabled bool              `json:"historyEnabled"`
	Breakers       map[string]string `json:"breakers,omitempty"`
	OpenBreakers   []string          `json:"openBreakers,omitempty"`
}

// gmailState is the breaker view shared by readiness and the detailed status.
type gmailState struct {
	states map[string]string
	open   []string
}

func (h *HealthChecker) gmail() gmailState {
	var g gmailState
	if h.breakers == nil {
		return g
	}
	g.states = h.breakers()
	for account, state := range g.states {
		if state == breakerOpen {
			g.open = append(g.open, account)
		}
	}
	slices.Sort(g.open)
	return g
}

func (g gmailState) check() string {
	if len(g.open) == 0 {
		return healthStatusOK
	}
	return "circuit open: " + strings.Join(g.open, ",")
}

func (h *HealthChecker) shuttingDown() bool {
	return h.sc != nil && h.sc.IsShutdown()
}

// unavailable returns the status that makes the server refuse traffic, or "".
func (h *HealthChecker) unavailable() string {
	switch {
	case !h.ready.Load():
		return healthStatusNotReady
	case h.shuttingDown():
		return healthStatusShuttingDown
	default:
		return ""
	}
}

func writeHealth(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler serves /healthz. It only reports that the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    healthStatusOK,
			"shutdown": healthStatusOK,
			"gmail":    h.gmail().check(),
		}
		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
		}
		if h.shuttingDown() {
			checks["shutdown"] = healthStatusShuttingDown
		}

		if h.unavailable() != "" {
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed: uptime, whether the default
// account has a token, whether history is recorded, and breaker states.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		g := h.gmail()
		resp := DetailedHealthResponse{
			Status:       healthStatusOK,
			Uptime:       time.Since(h.started).Truncate(time.Second).String(),
			OpenBreakers: g.open,
		}
		if len(g.states) > 0 {
			resp.Breakers = g.states
		}
		if h.sc != nil {
			resp.Account = h.sc.DefaultAccount()
			resp.HasToken = h.sc.HasToken(resp.Account)
			resp.HistoryEnabled = h.sc.opts.History != nil
		}

		if status := h.unavailable(); status != "" {
			resp.Status = status
			writeHealth(w, http.StatusServiceUnavailable, resp)
			return
		}
		if len(g.open) > 0 {
			resp.Status = healthStatusDegraded
		}
		writeHealth(w, http.StatusOK, resp)
	})
}

// RegisterHealthEndpoints registers the health endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
