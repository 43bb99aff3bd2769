package metrics

import (
	"sync"
	"time"
)

// SystemHealth is the aggregate health summary served to dashboards
type SystemHealth struct {
	Status     string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

// ComponentHealth tracks the health of a single monitored service or
// internal component
type ComponentHealth struct {
	Name    string
	Healthy bool
	Message string
	Updated time.Time
}

// HealthRegistry aggregates per-component health into a system summary
type HealthRegistry struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	startTime  time.Time
	version    string
}

// NewHealthRegistry creates an empty registry
func NewHealthRegistry(version string) *HealthRegistry {
	return &HealthRegistry{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
		version:    version,
	}
}

// Update records the health status of a component
func (r *HealthRegistry) Update(name string, healthy bool, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.components[name] = ComponentHealth{
		Name:    name,
		Healthy: healthy,
		Message: message,
		Updated: time.Now(),
	}
}

// Summary returns the overall health status. The system is degraded when
// any component is unhealthy and unhealthy when more than half are.
func (r *HealthRegistry) Summary() SystemHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	components := make(map[string]string, len(r.components))
	unhealthy := 0

	for name, comp := range r.components {
		if !comp.Healthy {
			unhealthy++
			components[name] = "unhealthy: " + comp.Message
		} else {
			components[name] = "healthy"
		}
	}

	status := "healthy"
	if unhealthy > 0 {
		status = "degraded"
	}
	if len(r.components) > 0 && unhealthy*2 > len(r.components) {
		status = "unhealthy"
	}

	return SystemHealth{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Version:    r.version,
		Uptime:     time.Since(r.startTime).String(),
	}
}
