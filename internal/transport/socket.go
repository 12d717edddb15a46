package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// Socket talks to an MCP server over a persistent WebSocket connection,
// one JSON frame per logical message. It is the only self-healing
// transport: on an unexpected close it schedules reconnection attempts
// with exponential backoff, resetting the attempt counter after a
// successful reconnect.
type Socket struct {
	entry  config.ServerEntry
	logger hclog.Logger
	opts   Options
	corr   *protocol.Correlator
	state  state

	mu       sync.Mutex
	conn     *websocket.Conn
	attempts int

	// closed suppresses automatic reconnection after an explicit Disconnect.
	closed atomic.Bool
}

// NewSocket creates a socket connection for the given server entry.
func NewSocket(entry config.ServerEntry, logger hclog.Logger, opt ...Option) (*Socket, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Socket{
		entry:  entry,
		logger: logger.Named("socket").With("server", entry.Name),
		opts:   opts,
		corr:   protocol.NewCorrelator(),
	}, nil
}

// Connect dials the WebSocket endpoint and performs the initialize
// handshake before the connection surfaces as active.
func (s *Socket) Connect(ctx context.Context) error {
	// Only a caller-initiated Connect may clear the closed flag; the
	// reconnect loop goes through connect directly so it can never
	// override a concurrent Disconnect.
	s.closed.Store(false)
	return s.connect(ctx)
}

func (s *Socket) connect(ctx context.Context) error {
	if !s.state.compareAndSwap(StateDisconnected, StateConnecting) {
		return fmt.Errorf("%w: server '%s' is %s", errors.ErrConnectionFailed, s.entry.Name, s.state.get())
	}

	target := "ws://" + s.entry.Address()
	s.logger.Info("dialing MCP server", "url", target)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		s.state.set(StateDisconnected)
		return fmt.Errorf("%w: dial '%s': %w", errors.ErrConnectionFailed, target, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)

	handshakeCtx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()
	if _, err := call(handshakeCtx, s.corr, s.opts.HandshakeTimeout, s.send, protocol.MethodInitialize, handshakeParams()); err != nil {
		s.teardown()
		return fmt.Errorf("%w: initialize handshake with '%s': %w", errors.ErrConnectionFailed, s.entry.Name, err)
	}

	// The connection may have dropped between the handshake reply and
	// here; in that case the read loop has already recorded the disconnect
	// and scheduled reconnection.
	s.state.compareAndSwap(StateConnecting, StateConnected)
	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()

	return nil
}

// Disconnect closes the WebSocket and fails every pending request.
// It is idempotent and suppresses any scheduled reconnection.
func (s *Socket) Disconnect() error {
	s.closed.Store(true)

	if s.state.get() == StateDisconnected {
		return nil
	}
	s.state.set(StateClosing)
	s.teardown()

	return nil
}

// teardown closes the underlying connection and fails pending requests,
// leaving the reconnect policy untouched.
func (s *Socket) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	s.corr.FailAll(errors.ErrConnectionClosed)
	s.state.set(StateDisconnected)
}

// Call sends a request frame and awaits its correlated reply.
func (s *Socket) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !s.IsActive() {
		return nil, fmt.Errorf("%w: server '%s' is not connected", errors.ErrConnectionFailed, s.entry.Name)
	}
	return call(ctx, s.corr, s.opts.CallTimeout, s.send, method, params)
}

// IsActive reports whether the WebSocket is connected.
func (s *Socket) IsActive() bool {
	return s.state.get() == StateConnected
}

// send writes one envelope as a single JSON frame.
func (s *Socket) send(req protocol.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.ErrConnectionClosed
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// readLoop parses incoming frames as one JSON message each and resolves
// them against the correlation table. An unexpected close fails all
// pending requests and schedules reconnection.
func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.state.get() == StateClosing || s.state.get() == StateDisconnected {
				return
			}

			s.logger.Warn("connection lost", "error", err)
			s.state.set(StateDisconnected)
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()
			s.corr.FailAll(errors.ErrConnectionClosed)

			go s.reconnectLoop()

			return
		}

		var resp protocol.Response
		if jsonErr := json.Unmarshal(data, &resp); jsonErr != nil {
			s.logger.Warn("discarding unparseable frame", "error", jsonErr)
			continue
		}
		if resp.ID != 0 {
			if !s.corr.Resolve(&resp) {
				s.logger.Debug("reply for unknown request id", "id", resp.ID)
			}
		}
	}
}

// reconnectLoop retries Connect with exponential backoff: the base delay
// doubles on every failed attempt, up to the configured attempt cap.
// A successful reconnect resets the counter; exhausting the cap leaves the
// server disconnected until an explicit reconnect.
func (s *Socket) reconnectLoop() {
	for {
		s.mu.Lock()
		attempt := s.attempts
		s.attempts++
		s.mu.Unlock()

		if attempt >= s.opts.ReconnectMaxAttempts {
			s.logger.Error("reconnection attempts exhausted", "attempts", attempt)
			return
		}

		delay := s.opts.ReconnectBaseDelay << attempt
		s.logger.Info("scheduling reconnect", "attempt", attempt+1, "delay", delay)
		time.Sleep(delay)

		if s.closed.Load() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.HandshakeTimeout)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			// A Disconnect that raced the attempt wins: tear the fresh
			// connection straight back down.
			if s.closed.Load() {
				s.state.set(StateClosing)
				s.teardown()
				return
			}
			s.logger.Info("reconnected")
			return
		}

		s.logger.Warn("reconnect attempt failed", "attempt", attempt+1, "error", err)
	}
}
