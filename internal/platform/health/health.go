// Package health provides HTTP health check endpoints for liveness and
// readiness probes, plus a status endpoint reporting the ledger clock.
package health

import (
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/internal/clock"
	"vouch/pkg/domain"
	"vouch/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc checks the health of a dependency. It returns nil if healthy,
// or an error describing the issue.
type CheckFunc func() error

// Handler provides health check endpoints.
type Handler struct {
	startTime time.Time
	clock     clock.Clock

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a health handler reporting the given ledger clock.
func New(clk clock.Clock) *Handler {
	return &Handler{
		startTime: time.Now(),
		clock:     clk,
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named health check for the readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts health check routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness always returns 200 OK while the process is running.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessResponse is the response for the readiness probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness checks all registered dependencies and returns 503 if any
// are unhealthy.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	response := ReadinessResponse{
		Status: "ready",
		Checks: make(map[string]string),
	}

	healthy := true
	for name, check := range checks {
		if err := check(); err != nil {
			response.Checks[name] = "down: " + err.Error()
			healthy = false
		} else {
			response.Checks[name] = "up"
		}
	}

	if !healthy {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// StatusResponse reports version, uptime and the current ledger tick.
type StatusResponse struct {
	Status        string      `json:"status"`
	Version       string      `json:"version"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	LedgerTime    domain.Time `json:"ledger_time"`
}

// HandleStatus returns general service status.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		LedgerTime:    h.clock.Now(),
	})
}
