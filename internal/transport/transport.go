// Package transport implements the three connection variants used to talk
// to MCP servers: stdio (child process pipes), socket (WebSocket) and http
// (stateless request/response). All variants satisfy contracts.Connection
// and own a private correlation table and id counter; connections are never
// shared between servers.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/contracts"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// Connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

// State is the runtime connectivity state of a connection.
type State int32

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// state wraps an atomic connection state shared by the transport variants.
type state struct {
	v atomic.Int32
}

func (s *state) get() State {
	return State(s.v.Load())
}

func (s *state) set(next State) {
	s.v.Store(int32(next))
}

func (s *state) compareAndSwap(old, next State) bool {
	return s.v.CompareAndSwap(int32(old), int32(next))
}

// New constructs the connection variant selected by the server entry's
// transport kind. The variant set is closed; client logic never switches on
// transport kind itself.
func New(entry config.ServerEntry, logger hclog.Logger, opt ...Option) (contracts.Connection, error) {
	switch entry.Transport {
	case config.TransportStdio:
		return NewStdio(entry, logger, opt...)
	case config.TransportSocket:
		return NewSocket(entry, logger, opt...)
	case config.TransportHTTP:
		return NewHTTP(entry, logger, opt...)
	default:
		return nil, fmt.Errorf("%w: unknown transport '%s' for server '%s'",
			errors.ErrBadRequest, entry.Transport, entry.Name)
	}
}

// call sends one request through send and awaits its correlated reply.
// A populated JSON-RPC error member surfaces as ErrProtocol.
func call(
	ctx context.Context,
	corr *protocol.Correlator,
	timeout time.Duration,
	send func(protocol.Request) error,
	method string,
	params any,
) (json.RawMessage, error) {
	id := corr.NextID()
	pending := corr.Register(id)

	if err := send(protocol.NewRequest(id, method, params)); err != nil {
		corr.Fail(id, err)
		return nil, fmt.Errorf("%w: send %s: %w", errors.ErrConnectionFailed, method, err)
	}

	resp, err := pending.Wait(ctx, timeout)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrProtocol, method, resp.Error)
	}

	return resp.Result, nil
}

// handshakeParams returns the initialize payload identifying this client.
func handshakeParams() protocol.InitializeParams {
	return protocol.InitializeParams{
		ProtocolVersion: "latest",
		ClientInfo: protocol.ClientInfo{
			Name:    "mcpgate",
			Version: "0.1.0",
		},
	}
}
