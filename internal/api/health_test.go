package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcpgate/mcpgate/internal/domain"
	"github.com/mcpgate/mcpgate/internal/errors"
)

// stubMonitor is a canned contracts.MCPHealthMonitor.
type stubMonitor struct {
	records map[string]domain.ServerHealth
	summary domain.HealthSummary
}

func (s *stubMonitor) Status(name string) (domain.ServerHealth, error) {
	if record, ok := s.records[name]; ok {
		return record, nil
	}
	return domain.ServerHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

func (s *stubMonitor) List() []domain.ServerHealth {
	out := make([]domain.ServerHealth, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out
}

func (s *stubMonitor) Summary() domain.HealthSummary {
	return s.summary
}

func TestParseHealthStatus_ValidCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    domain.HealthStatus
		expected HealthStatus
	}{
		{
			"ok",
			domain.HealthStatusOK,
			HealthStatusOK,
		},
		{
			"timeout",
			domain.HealthStatusTimeout,
			HealthStatusTimeout,
		},
		{
			"unreachable",
			domain.HealthStatusUnreachable,
			HealthStatusUnreachable,
		},
		{
			"unknown",
			domain.HealthStatusUnknown,
			HealthStatusUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseHealthStatus(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestParseHealthStatus_InvalidCase(t *testing.T) {
	t.Parallel()

	input := domain.HealthStatus("invalid-status")
	_, err := parseHealthStatus(input)
	require.Error(t, err)
	require.EqualError(t, err, fmt.Sprintf("unknown health status: %s", input))
}

func TestHandleHealthServers_SortedByName(t *testing.T) {
	t.Parallel()

	latency := 12 * time.Millisecond
	monitor := &stubMonitor{records: map[string]domain.ServerHealth{
		"zeta":  {Name: "zeta", Status: domain.HealthStatusUnreachable, LastError: "dial refused"},
		"alpha": {Name: "alpha", Status: domain.HealthStatusOK, Latency: &latency},
	}}

	resp, err := handleHealthServers(monitor)
	require.NoError(t, err)
	require.Len(t, resp.Body.Servers, 2)
	require.Equal(t, "alpha", resp.Body.Servers[0].Name)
	require.Equal(t, HealthStatusOK, resp.Body.Servers[0].Status)
	require.NotNil(t, resp.Body.Servers[0].Latency)
	require.Equal(t, "12ms", *resp.Body.Servers[0].Latency)
	require.Equal(t, "zeta", resp.Body.Servers[1].Name)
	require.Equal(t, "dial refused", resp.Body.Servers[1].LastError)
}

func TestHandleHealthServer(t *testing.T) {
	t.Parallel()

	monitor := &stubMonitor{records: map[string]domain.ServerHealth{
		"alpha": {Name: "alpha", Status: domain.HealthStatusTimeout},
	}}

	resp, err := handleHealthServer(monitor, "alpha")
	require.NoError(t, err)
	require.Equal(t, HealthStatusTimeout, resp.Body.Status)

	_, err = handleHealthServer(monitor, "ghost")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
}

func TestHandleHealthSummary(t *testing.T) {
	t.Parallel()

	monitor := &stubMonitor{summary: domain.HealthSummary{
		TotalServers:     3,
		HealthyServers:   2,
		MeanLatency:      15 * time.Millisecond,
		UnhealthyServers: []string{"gamma"},
	}}

	resp, err := handleHealthSummary(monitor)
	require.NoError(t, err)
	require.Equal(t, 3, resp.Body.TotalServers)
	require.Equal(t, 2, resp.Body.HealthyServers)
	require.NotNil(t, resp.Body.MeanLatency)
	require.Equal(t, "15ms", *resp.Body.MeanLatency)
	require.Equal(t, []string{"gamma"}, resp.Body.UnhealthyServers)
}

func TestHandleHealthSummary_NoLatency(t *testing.T) {
	t.Parallel()

	monitor := &stubMonitor{summary: domain.HealthSummary{TotalServers: 1, UnhealthyServers: []string{"alpha"}}}

	resp, err := handleHealthSummary(monitor)
	require.NoError(t, err)
	require.Nil(t, resp.Body.MeanLatency)
}
