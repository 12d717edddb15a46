package daemon

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mcpgate/mcpgate/internal/client"
	"github.com/mcpgate/mcpgate/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Servers: []config.ServerEntry{
			{
				Name:      "alpha",
				Transport: config.TransportStdio,
				Command:   "true",
				Enabled:   true,
			},
		},
	}
}

func TestNewDependencies_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewDependencies(nil, testConfig(), "localhost:8090")
	require.ErrorContains(t, err, "logger cannot be nil")

	_, err = NewDependencies(hclog.NewNullLogger(), nil, "localhost:8090")
	require.ErrorContains(t, err, "config cannot be nil")

	_, err = NewDependencies(hclog.NewNullLogger(), &config.Config{}, "localhost:8090")
	require.ErrorContains(t, err, "no enabled MCP servers")

	_, err = NewDependencies(hclog.NewNullLogger(), testConfig(), "bogus")
	require.ErrorContains(t, err, "invalid API address")

	deps, err := NewDependencies(hclog.NewNullLogger(), testConfig(), "localhost:8090")
	require.NoError(t, err)
	require.Equal(t, "localhost:8090", deps.APIAddr)
}

func TestNewDaemon(t *testing.T) {
	t.Parallel()

	deps, err := NewDependencies(hclog.NewNullLogger(), testConfig(), "localhost:8090")
	require.NoError(t, err)

	d, err := NewDaemon(deps, WithMCPServerInitTimeout(10*time.Second))
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NotNil(t, d.client)
	require.NotNil(t, d.apiServer)
}

func TestNewDaemon_InvalidDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewDaemon(Dependencies{})
	require.ErrorContains(t, err, "invalid dependencies")
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	opts, err := NewOptions()
	require.NoError(t, err)
	require.Equal(t, DefaultClientInitTimeout(), opts.ClientInitTimeout)

	opts, err = NewOptions(
		WithMCPServerInitTimeout(time.Minute),
		WithClientOptions(client.WithArgumentValidation(true)),
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, time.Minute, opts.ClientInitTimeout)
	require.Len(t, opts.ClientOptions, 1)

	_, err = NewOptions(WithMCPServerInitTimeout(0))
	require.Error(t, err)
}
