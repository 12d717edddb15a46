package domain

import "time"

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// HealthStatus represents the internal state of an MCP server's availability.
type HealthStatus string

// Healthy reports whether the status counts as healthy for aggregation.
func (s HealthStatus) Healthy() bool {
	return s == HealthStatusOK
}

// ServerHealth tracks the internal health state for an MCP server.
// Records are overwritten on every probe tick; history is not retained.
type ServerHealth struct {
	Name           string
	Status         HealthStatus
	Latency        *time.Duration
	LastChecked    *time.Time
	LastSuccessful *time.Time
	LastError      string
}

// HealthSummary aggregates the latest health records across all tracked servers.
type HealthSummary struct {
	TotalServers     int
	HealthyServers   int
	MeanLatency      time.Duration
	UnhealthyServers []string
}
