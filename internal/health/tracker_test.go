package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcpgate/mcpgate/internal/domain"
	"github.com/mcpgate/mcpgate/internal/errors"
)

func TestNewTracker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		serverNames []string
		wantLen     int
	}{
		{name: "no servers", serverNames: nil, wantLen: 0},
		{name: "single server", serverNames: []string{"alpha"}, wantLen: 1},
		{name: "multiple servers", serverNames: []string{"alpha", "beta", "gamma"}, wantLen: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tracker := NewTracker(tc.serverNames...)
			require.Len(t, tracker.List(), tc.wantLen)

			for _, name := range tc.serverNames {
				record, err := tracker.Status(name)
				require.NoError(t, err)
				require.Equal(t, domain.HealthStatusUnknown, record.Status)
			}
		})
	}
}

func TestTracker_UpdateUntracked(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	err := tracker.Update("ghost", domain.HealthStatusOK, nil, "")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)

	_, err = tracker.Status("ghost")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
}

func TestTracker_TrackIsIdempotent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.Track("alpha")

	latency := 5 * time.Millisecond
	require.NoError(t, tracker.Update("alpha", domain.HealthStatusOK, &latency, ""))

	// Tracking again must not reset the record.
	tracker.Track("alpha")
	record, err := tracker.Status("alpha")
	require.NoError(t, err)
	require.Equal(t, domain.HealthStatusOK, record.Status)
}

func TestTracker_UpdateCarriesLastSuccessful(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("alpha")
	latency := time.Millisecond

	require.NoError(t, tracker.Update("alpha", domain.HealthStatusOK, &latency, ""))
	record, err := tracker.Status("alpha")
	require.NoError(t, err)
	require.NotNil(t, record.LastSuccessful)
	successAt := *record.LastSuccessful

	require.NoError(t, tracker.Update("alpha", domain.HealthStatusUnreachable, nil, "boom"))
	record, err = tracker.Status("alpha")
	require.NoError(t, err)
	require.Equal(t, domain.HealthStatusUnreachable, record.Status)
	require.Equal(t, "boom", record.LastError)
	require.NotNil(t, record.LastSuccessful)
	require.Equal(t, successAt, *record.LastSuccessful)
}

func TestTracker_Summary(t *testing.T) {
	t.Parallel()

	tracker := NewTracker("alpha", "beta", "gamma")

	fast := 10 * time.Millisecond
	slow := 30 * time.Millisecond
	require.NoError(t, tracker.Update("alpha", domain.HealthStatusOK, &fast, ""))
	require.NoError(t, tracker.Update("beta", domain.HealthStatusOK, &slow, ""))
	require.NoError(t, tracker.Update("gamma", domain.HealthStatusUnreachable, nil, "down"))

	summary := tracker.Summary()
	require.Equal(t, 3, summary.TotalServers)
	require.Equal(t, 2, summary.HealthyServers)
	require.LessOrEqual(t, summary.HealthyServers, summary.TotalServers)
	require.Equal(t, 20*time.Millisecond, summary.MeanLatency)
	require.Equal(t, []string{"gamma"}, summary.UnhealthyServers)
}

func TestTracker_SummaryEmpty(t *testing.T) {
	t.Parallel()

	summary := NewTracker().Summary()
	require.Equal(t, 0, summary.TotalServers)
	require.Equal(t, 0, summary.HealthyServers)
	require.Zero(t, summary.MeanLatency)
	require.Empty(t, summary.UnhealthyServers)
}
