package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Components tracked by the health registry
const (
	ComponentConfig    = "config"
	ComponentBackend   = "backend"
	ComponentScheduler = "scheduler"
)

// ReadinessComponents must all be registered and healthy for /ready to pass
var ReadinessComponents = []string{ComponentBackend, ComponentScheduler}

// Overall statuses reported by GetHealth and GetReadiness
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// HealthStatus is the JSON body of /health and /ready
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

// ComponentHealth is the last report from one component
type ComponentHealth struct {
	Name    string
	Healthy bool
	Message string
	Updated time.Time
}

func (c ComponentHealth) describe(ok, notOK string) string {
	if c.Healthy {
		return ok
	}
	return notOK + ": " + c.Message
}

// registry holds component reports for the life of the process
type registry struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	started    time.Time
	version    string
}

var health = &registry{
	components: make(map[string]ComponentHealth),
	started:    time.Now(),
}

func (r *registry) snapshot() (map[string]ComponentHealth, string, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comps := make(map[string]ComponentHealth, len(r.components))
	for name, c := range r.components {
		comps[name] = c
	}
	return comps, r.version, time.Since(r.started)
}

// SetVersion sets the version string for health responses
func SetVersion(version string) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.version = version
}

// UpdateComponent records the health of a component and mirrors it in the
// modelkeeper_component_healthy gauge
func UpdateComponent(name string, healthy bool, message string) {
	health.mu.Lock()
	health.components[name] = ComponentHealth{
		Name:    name,
		Healthy: healthy,
		Message: message,
		Updated: time.Now(),
	}
	health.mu.Unlock()

	v := 0.0
	if healthy {
		v = 1
	}
	ComponentHealthy.WithLabelValues(name).Set(v)
}

// Component returns the last recorded health of a component
func Component(name string) (ComponentHealth, bool) {
	health.mu.RLock()
	defer health.mu.RUnlock()
	c, ok := health.components[name]
	return c, ok
}

// GetHealth is unhealthy when any registered component is unhealthy
func GetHealth() HealthStatus {
	comps, version, uptime := health.snapshot()

	status := HealthStatus{
		Status:     StatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]string, len(comps)),
		Version:    version,
		Uptime:     uptime.String(),
	}
	for name, c := range comps {
		status.Components[name] = c.describe(StatusHealthy, StatusUnhealthy)
		if !c.Healthy {
			status.Status = StatusUnhealthy
		}
	}
	return status
}

// GetReadiness is ready only when every ReadinessComponents entry has
// reported and is healthy. Message names the first component holding it back.
func GetReadiness() HealthStatus {
	comps, version, uptime := health.snapshot()

	status := HealthStatus{
		Status:     StatusReady,
		Timestamp:  time.Now(),
		Components: make(map[string]string, len(ReadinessComponents)),
		Version:    version,
		Uptime:     uptime.String(),
	}

	var waiting []string
	for _, name := range ReadinessComponents {
		c, ok := comps[name]
		switch {
		case !ok:
			status.Components[name] = "not registered"
			waiting = append(waiting, name+" initialization")
		case !c.Healthy:
			status.Components[name] = c.describe(StatusReady, "not ready")
			waiting = append(waiting, name)
		default:
			status.Components[name] = StatusReady
		}
	}

	if len(waiting) > 0 {
		sort.Strings(waiting)
		status.Status = StatusNotReady
		status.Message = "waiting for " + waiting[0]
	}
	return status
}

// HealthHandler serves GetHealth, with 503 when unhealthy
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := GetHealth()
		writeJSON(w, statusCode(h.Status == StatusHealthy), h)
	}
}

// ReadyHandler serves GetReadiness, with 503 when not ready
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := GetReadiness()
		writeJSON(w, statusCode(h.Status == StatusReady), h)
	}
}

// LivenessHandler always answers 200 while the process runs
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, uptime := health.snapshot()
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "alive",
			"uptime": uptime.String(),
		})
	}
}

func statusCode(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ResetHealth drops every registered component and restarts the uptime clock
func ResetHealth() {
	health.mu.Lock()
	defer health.mu.Unlock()

	health.components = make(map[string]ComponentHealth)
	health.started = time.Now()
	ComponentHealthy.Reset()
}
