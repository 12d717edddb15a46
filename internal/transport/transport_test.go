package transport

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mcpgate/mcpgate/internal/config"
)

func TestNew_SelectsVariant(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()

	conn, err := New(config.ServerEntry{Name: "a", Transport: config.TransportStdio, Command: "cat"}, logger)
	require.NoError(t, err)
	require.IsType(t, &Stdio{}, conn)

	conn, err = New(config.ServerEntry{Name: "b", Transport: config.TransportSocket, Host: "h", Port: 1}, logger)
	require.NoError(t, err)
	require.IsType(t, &Socket{}, conn)

	conn, err = New(config.ServerEntry{Name: "c", Transport: config.TransportHTTP, Host: "h", Port: 1}, logger)
	require.NoError(t, err)
	require.IsType(t, &HTTP{}, conn)

	_, err = New(config.ServerEntry{Name: "d", Transport: "telegraph"}, logger)
	require.Error(t, err)
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
		check   func(t *testing.T, o Options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				t.Helper()
				require.Equal(t, 30*time.Second, o.CallTimeout)
				require.Equal(t, time.Second, o.ReconnectBaseDelay)
				require.Equal(t, 5, o.ReconnectMaxAttempts)
			},
		},
		{
			name: "overrides applied in order",
			opts: []Option{
				WithCallTimeout(time.Second),
				WithCallTimeout(2 * time.Second),
				WithReconnectMaxAttempts(0),
			},
			check: func(t *testing.T, o Options) {
				t.Helper()
				require.Equal(t, 2*time.Second, o.CallTimeout)
				require.Equal(t, 0, o.ReconnectMaxAttempts)
			},
		},
		{
			name:    "invalid call timeout",
			opts:    []Option{WithCallTimeout(0)},
			wantErr: true,
		},
		{
			name:    "invalid handshake timeout",
			opts:    []Option{WithHandshakeTimeout(-time.Second)},
			wantErr: true,
		},
		{
			name:    "invalid base delay",
			opts:    []Option{WithReconnectBaseDelay(0)},
			wantErr: true,
		},
		{
			name:    "negative attempts",
			opts:    []Option{WithReconnectMaxAttempts(-1)},
			wantErr: true,
		},
		{
			name: "nil options skipped",
			opts: []Option{nil, WithCallTimeout(time.Second)},
			check: func(t *testing.T, o Options) {
				t.Helper()
				require.Equal(t, time.Second, o.CallTimeout)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			o, err := NewOptions(tc.opts...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, o)
			}
		})
	}
}
