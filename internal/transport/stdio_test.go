package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

func stdioEntry(command string, args ...string) config.ServerEntry {
	return config.ServerEntry{
		Name:      "test",
		Transport: config.TransportStdio,
		Command:   command,
		Args:      args,
		Enabled:   true,
	}
}

func TestReadMessages_SplitAcrossReads(t *testing.T) {
	t.Parallel()

	corr := protocol.NewCorrelator()
	first := corr.Register(1)
	second := corr.Register(2)

	r, w := io.Pipe()
	go func() {
		defer func() { _ = w.Close() }()

		// One read delivers a complete message plus the head of the next;
		// the tail arrives in a later read.
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"n":1}}` + "\n" + `{"jsonrpc":"2.0",`))
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`"id":2,"result":{"n":2}}` + "\n"))
	}()

	done := make(chan error, 1)
	go func() {
		done <- readMessages(r, hclog.NewNullLogger(), corr)
	}()

	resp, err := first.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.JSONEq(t, `{"n":1}`, string(resp.Result))

	resp, err = second.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.JSONEq(t, `{"n":2}`, string(resp.Result))

	require.ErrorIs(t, <-done, io.EOF)
}

func TestReadMessages_SkipsGarbageLines(t *testing.T) {
	t.Parallel()

	corr := protocol.NewCorrelator()
	pending := corr.Register(7)

	r, w := io.Pipe()
	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.Write([]byte("not json at all\n\n" + `{"jsonrpc":"2.0","id":7,"result":{}}` + "\n"))
	}()

	go func() {
		_ = readMessages(r, hclog.NewNullLogger(), corr)
	}()

	resp, err := pending.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestStdio_ConnectSpawnFailure(t *testing.T) {
	t.Parallel()

	s, err := NewStdio(stdioEntry("/nonexistent-binary-for-mcpgate-tests"), hclog.NewNullLogger())
	require.NoError(t, err)

	err = s.Connect(context.Background())
	require.ErrorIs(t, err, errors.ErrConnectionFailed)
	require.False(t, s.IsActive())
}

func TestStdio_RoundTripWithEchoProcess(t *testing.T) {
	t.Parallel()

	// cat echoes each request line back; the echoed envelope carries the
	// request id, which satisfies correlation for handshake and calls.
	s, err := NewStdio(stdioEntry("cat"), hclog.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, s.Connect(context.Background()))
	require.True(t, s.IsActive())

	_, err = s.Call(context.Background(), protocol.MethodPing, nil)
	require.NoError(t, err)

	require.NoError(t, s.Disconnect())
	require.False(t, s.IsActive())

	// Disconnect is idempotent.
	require.NoError(t, s.Disconnect())

	// Calls on a disconnected server reject promptly.
	_, err = s.Call(context.Background(), protocol.MethodPing, nil)
	require.ErrorIs(t, err, errors.ErrConnectionFailed)
}

func TestStdio_ProcessExitDisconnects(t *testing.T) {
	t.Parallel()

	// head echoes exactly one line (the handshake) and exits.
	s, err := NewStdio(stdioEntry("head", "-n", "1"), hclog.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, s.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return !s.IsActive()
	}, 2*time.Second, 10*time.Millisecond)

	_, err = s.Call(context.Background(), protocol.MethodPing, nil)
	require.ErrorIs(t, err, errors.ErrConnectionFailed)
}

func TestStdio_ConnectTwiceFails(t *testing.T) {
	t.Parallel()

	s, err := NewStdio(stdioEntry("cat"), hclog.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Disconnect() })

	err = s.Connect(context.Background())
	require.ErrorIs(t, err, errors.ErrConnectionFailed)
}
