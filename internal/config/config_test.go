package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".mcpgate.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefaultLoader_Load(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantErr     error
		wantServers int
	}{
		{
			name: "valid stdio server",
			content: `
[[servers]]
name = "time"
transport = "stdio"
command = "uvx"
args = ["mcp-server-time"]
enabled = true
`,
			wantServers: 1,
		},
		{
			name: "valid mixed transports",
			content: `
[[servers]]
name = "files"
transport = "stdio"
command = "npx"
enabled = true

[[servers]]
name = "search"
transport = "socket"
host = "localhost"
port = 9001
path = "/mcp"
enabled = true

[[servers]]
name = "fetch"
transport = "http"
host = "localhost"
port = 9002
enabled = false
`,
			wantServers: 3,
		},
		{
			name: "unknown transport",
			content: `
[[servers]]
name = "bad"
transport = "carrier-pigeon"
enabled = true
`,
			wantErr: ErrConfigLoadFailed,
		},
		{
			name: "stdio missing command",
			content: `
[[servers]]
name = "bad"
transport = "stdio"
enabled = true
`,
			wantErr: ErrConfigLoadFailed,
		},
		{
			name: "socket missing host",
			content: `
[[servers]]
name = "bad"
transport = "socket"
port = 9000
enabled = true
`,
			wantErr: ErrConfigLoadFailed,
		},
		{
			name: "http invalid port",
			content: `
[[servers]]
name = "bad"
transport = "http"
host = "localhost"
port = 70000
enabled = true
`,
			wantErr: ErrConfigLoadFailed,
		},
		{
			name: "duplicate names",
			content: `
[[servers]]
name = "twin"
transport = "stdio"
command = "a"
enabled = true

[[servers]]
name = "twin"
transport = "stdio"
command = "b"
enabled = true
`,
			wantErr: ErrConfigLoadFailed,
		},
		{
			name:    "empty file",
			content: ``,
			wantErr: ErrConfigLoadFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			loader := &DefaultLoader{}
			cfg, err := loader.Load(writeConfig(t, tc.content))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, cfg.Servers, tc.wantServers)
		})
	}
}

func TestDefaultLoader_Load_MissingFile(t *testing.T) {
	t.Parallel()

	loader := &DefaultLoader{}
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorIs(t, err, ErrConfigLoadFailed)
}

func TestConfig_EnabledServers(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Servers: []ServerEntry{
			{Name: "on", Transport: TransportStdio, Command: "x", Enabled: true},
			{Name: "off", Transport: TransportStdio, Command: "y", Enabled: false},
		},
	}

	enabled := cfg.EnabledServers()
	require.Len(t, enabled, 1)
	require.Equal(t, "on", enabled[0].Name)
}

func TestServerEntry_Address(t *testing.T) {
	t.Parallel()

	e := ServerEntry{Host: "localhost", Port: 9001, Path: "/mcp"}
	require.Equal(t, "localhost:9001/mcp", e.Address())

	e = ServerEntry{Host: "localhost", Port: 9001}
	require.Equal(t, "localhost:9001", e.Address())
}
