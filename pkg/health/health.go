// Package health provides readiness state tracking and HTTP health check
// handlers. Besides overall process readiness it tracks per-target health
// reported by connectivity tests.
package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// State constants for the readiness state machine.
const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// TargetHealth is the last known health of one query target.
type TargetHealth struct {
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker tracks the readiness state of the service and the health of its
// targets. It is safe for concurrent use.
type Checker struct {
	state atomic.Int32

	mu      sync.RWMutex
	targets map[string]TargetHealth
}

// NewChecker creates a Checker in the Starting state.
func NewChecker() *Checker {
	return &Checker{targets: make(map[string]TargetHealth)}
}

// SetReady transitions to the Ready state.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetDraining transitions to the Draining state.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady returns true when the state is Ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state as a human-readable string.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

// SetTargetHealth records the latest connectivity-test outcome for a target.
func (c *Checker) SetTargetHealth(h TargetHealth) {
	if h.CheckedAt.IsZero() {
		h.CheckedAt = time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[h.Name] = h
}

// TargetHealths returns the last known health of every target, sorted by name.
func (c *Checker) TargetHealths() []TargetHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]TargetHealth, 0, len(c.targets))
	for _, h := range c.targets {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status  string         `json:"status"`
	Targets []TargetHealth `json:"targets,omitempty"`
}

// LivenessHandler returns an http.HandlerFunc that always responds 200 OK.
// Use this for K8s livenessProbe (/healthz).
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler returns an http.HandlerFunc that responds 200 when ready
// and 503 when starting or draining. The body includes per-target health.
// Use this for K8s readinessProbe (/readyz).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := healthResponse{Status: c.State(), Targets: c.TargetHealths()}
		if c.IsReady() {
			writeJSON(w, http.StatusOK, body)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
	}
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
