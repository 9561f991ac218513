// Package healthprobe provides liveness and readiness handlers. Readiness is
// tracked per component so a probe failure names the component that is not up.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time

	mu         sync.RWMutex
	components map[string]bool
}

// New creates a HealthChecker with the given component names, all initially
// not ready.
func New(components ...string) *HealthChecker {
	h := &HealthChecker{
		startTime:  time.Now(),
		components: make(map[string]bool, len(components)),
	}
	for _, name := range components {
		h.components[name] = false
	}
	return h
}

// SetReady marks a single component ready or not ready. Components not named
// at construction are registered on first use.
func (h *HealthChecker) SetReady(component string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[component] = ready
}

// IsReady reports whether every component is ready.
func (h *HealthChecker) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ready := range h.components {
		if !ready {
			return false
		}
	}
	return true
}

// HealthResponse is the liveness/readiness response body.
type HealthResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	NotReady []string          `json:"not_ready,omitempty"`
	Detail   map[string]string `json:"detail,omitempty"`
}

// Health returns an HTTP handler for liveness checks. Always 200 while the
// process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks. 200 when every
// component is ready, 503 with the list of lagging components otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notReady := h.notReadyComponents()

		w.Header().Set("Content-Type", "application/json")

		if len(notReady) > 0 {
			resp := HealthResponse{
				Status:   "not_ready",
				Uptime:   time.Since(h.startTime).String(),
				NotReady: notReady,
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *HealthChecker) notReadyComponents() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var notReady []string
	for name, ready := range h.components {
		if !ready {
			notReady = append(notReady, name)
		}
	}
	sort.Strings(notReady)
	return notReady
}
