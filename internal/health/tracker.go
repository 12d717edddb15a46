// Package health issues liveness probes against MCP server connections and
// records rolling health status per server. Probe failures are absorbed
// into records and never surface as errors to callers.
package health

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mcpgate/mcpgate/internal/domain"
	"github.com/mcpgate/mcpgate/internal/errors"
)

// Tracker holds the latest health record per server.
// It is safe for concurrent use by multiple goroutines.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.ServerHealth
}

// NewTracker creates a tracker preseeded with the given server names, each
// starting in the unknown state.
func NewTracker(serverNames ...string) *Tracker {
	statuses := make(map[string]domain.ServerHealth, len(serverNames))
	for _, name := range serverNames {
		statuses[name] = domain.ServerHealth{Name: name, Status: domain.HealthStatusUnknown}
	}
	return &Tracker{
		statuses: statuses,
	}
}

// Track registers a server for health tracking if it is not known yet.
func (t *Tracker) Track(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.statuses[name]; !ok {
		t.statuses[name] = domain.ServerHealth{Name: name, Status: domain.HealthStatusUnknown}
	}
}

// Status returns the health record for a single tracked server.
func (t *Tracker) Status(name string) (domain.ServerHealth, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if health, ok := t.statuses[name]; ok {
		return health, nil
	}

	return domain.ServerHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

// List returns a copy of all known server health records.
func (t *Tracker) List() []domain.ServerHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Collect(maps.Values(t.statuses))
}

// Update records a health check for a tracked server, overwriting the
// previous record. LastSuccessful carries over unless the new status is
// healthy. Latency can be nil if the probe failed before being measured.
func (t *Tracker) Update(name string, status domain.HealthStatus, latency *time.Duration, lastError string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()

	prev, exists := t.statuses[name]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
	}

	lastSuccessful := prev.LastSuccessful
	if status == domain.HealthStatusOK {
		lastSuccessful = &now
	}

	t.statuses[name] = domain.ServerHealth{
		Name:           name,
		Status:         status,
		Latency:        latency,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
		LastError:      lastError,
	}

	return nil
}

// Summary aggregates the latest records: total tracked servers, healthy
// count, mean latency across servers with a measured latency, and the
// names of currently unhealthy servers.
func (t *Tracker) Summary() domain.HealthSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := domain.HealthSummary{
		TotalServers:     len(t.statuses),
		UnhealthyServers: make([]string, 0),
	}

	var totalLatency time.Duration
	var measured int
	for name, health := range t.statuses {
		if health.Status.Healthy() {
			summary.HealthyServers++
		} else {
			summary.UnhealthyServers = append(summary.UnhealthyServers, name)
		}
		if health.Latency != nil {
			totalLatency += *health.Latency
			measured++
		}
	}

	if measured > 0 {
		summary.MeanLatency = totalLatency / time.Duration(measured)
	}
	slices.Sort(summary.UnhealthyServers)

	return summary
}
