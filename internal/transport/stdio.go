package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// Stdio talks to an MCP server spawned as a child process, exchanging
// newline-delimited JSON over its standard input and output. Standard error
// is drained to the logger only and never parsed as protocol data. The
// transport does not self-heal: once the process exits the connection stays
// disconnected until the caller reconnects explicitly.
type Stdio struct {
	entry  config.ServerEntry
	logger hclog.Logger
	opts   Options
	corr   *protocol.Correlator
	state  state

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewStdio creates a stdio connection for the given server entry.
func NewStdio(entry config.ServerEntry, logger hclog.Logger, opt ...Option) (*Stdio, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Stdio{
		entry:  entry,
		logger: logger.Named("stdio").With("server", entry.Name),
		opts:   opts,
		corr:   protocol.NewCorrelator(),
	}, nil
}

// Connect spawns the configured command, wires up its pipes and performs
// the initialize handshake before reporting the connection as active.
func (s *Stdio) Connect(ctx context.Context) error {
	if !s.state.compareAndSwap(StateDisconnected, StateConnecting) {
		return fmt.Errorf("%w: server '%s' is %s", errors.ErrConnectionFailed, s.entry.Name, s.state.get())
	}

	cmd := exec.Command(s.entry.Command, s.entry.Args...)
	cmd.Env = s.entry.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.state.set(StateDisconnected)
		return fmt.Errorf("%w: stdin pipe for '%s': %w", errors.ErrConnectionFailed, s.entry.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.state.set(StateDisconnected)
		return fmt.Errorf("%w: stdout pipe for '%s': %w", errors.ErrConnectionFailed, s.entry.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.state.set(StateDisconnected)
		return fmt.Errorf("%w: stderr pipe for '%s': %w", errors.ErrConnectionFailed, s.entry.Name, err)
	}

	if err := cmd.Start(); err != nil {
		s.state.set(StateDisconnected)
		return fmt.Errorf("%w: failed to spawn '%s': %w", errors.ErrConnectionFailed, s.entry.Command, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.mu.Unlock()

	s.logger.Info("spawned MCP server process", "command", s.entry.Command, "pid", cmd.Process.Pid)

	go s.drainStderr(stderr)
	go s.readLoop(stdout)
	go func() {
		// Reap the child to avoid zombies; readLoop observes the exit via EOF.
		_ = cmd.Wait()
	}()

	handshakeCtx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()
	if _, err := call(handshakeCtx, s.corr, s.opts.HandshakeTimeout, s.send, protocol.MethodInitialize, handshakeParams()); err != nil {
		_ = s.Disconnect()
		return fmt.Errorf("%w: initialize handshake with '%s': %w", errors.ErrConnectionFailed, s.entry.Name, err)
	}

	// The process may have exited between the handshake reply and here;
	// in that case the read loop has already recorded the disconnect.
	s.state.compareAndSwap(StateConnecting, StateConnected)

	return nil
}

// Disconnect kills the child process and fails every pending request.
// It is idempotent.
func (s *Stdio) Disconnect() error {
	if s.state.get() == StateDisconnected {
		return nil
	}
	s.state.set(StateClosing)

	s.mu.Lock()
	cmd := s.cmd
	stdin := s.stdin
	s.cmd = nil
	s.stdin = nil
	s.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}

	s.corr.FailAll(errors.ErrConnectionClosed)
	s.state.set(StateDisconnected)

	return nil
}

// Call sends a request and awaits its correlated reply.
func (s *Stdio) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !s.IsActive() {
		return nil, fmt.Errorf("%w: server '%s' is not connected", errors.ErrConnectionFailed, s.entry.Name)
	}
	return call(ctx, s.corr, s.opts.CallTimeout, s.send, method, params)
}

// IsActive reports whether the child process is connected.
func (s *Stdio) IsActive() bool {
	return s.state.get() == StateConnected
}

// send writes one envelope as JSON followed by a newline to stdin.
func (s *Stdio) send(req protocol.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil {
		return errors.ErrConnectionClosed
	}
	if _, err := s.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to stdin: %w", err)
	}

	return nil
}

// readLoop parses newline-delimited JSON replies from stdout. Partial lines
// are buffered across reads and multiple messages in one read are all
// delivered, in order. When the stream ends the process is gone: the
// connection transitions to disconnected and all pending requests fail.
func (s *Stdio) readLoop(stdout io.Reader) {
	err := readMessages(stdout, s.logger, s.corr)

	if s.state.get() == StateClosing {
		return
	}

	s.logger.Warn("MCP server process exited", "error", err)
	s.state.set(StateDisconnected)
	s.corr.FailAll(errors.ErrConnectionClosed)
}

// drainStderr logs the child's standard error output line by line.
func (s *Stdio) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		s.logger.Debug("stderr", "line", scanner.Text())
	}
}

// readMessages reads newline-terminated JSON messages from r and resolves
// each against the correlation table until the stream ends. Lines that are
// not valid envelopes are logged and skipped.
func readMessages(r io.Reader, logger hclog.Logger, corr *protocol.Correlator) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var resp protocol.Response
			if jsonErr := json.Unmarshal(line, &resp); jsonErr != nil {
				logger.Warn("discarding unparseable message", "error", jsonErr)
			} else if resp.ID != 0 {
				if !corr.Resolve(&resp) {
					logger.Debug("reply for unknown request id", "id", resp.ID)
				}
			}
		}
		if err != nil {
			return err
		}
	}
}
