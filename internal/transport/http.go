package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// HTTP talks to an MCP server with one POST round trip per call: there is
// no persistent channel, no pending table, and no background reconnection.
// Connect is implemented as a single liveness probe.
type HTTP struct {
	entry   config.ServerEntry
	logger  hclog.Logger
	opts    Options
	baseURL string
	client  *http.Client
	nextID  atomic.Int64
	active  atomic.Bool
}

// NewHTTP creates an http connection for the given server entry.
func NewHTTP(entry config.ServerEntry, logger hclog.Logger, opt ...Option) (*HTTP, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &HTTP{
		entry:   entry,
		logger:  logger.Named("http").With("server", entry.Name),
		opts:    opts,
		baseURL: "http://" + entry.Address(),
		client:  &http.Client{Timeout: opts.CallTimeout},
	}, nil
}

// Connect probes the server with a single ping call.
func (h *HTTP) Connect(ctx context.Context) error {
	h.logger.Info("probing MCP server", "url", h.baseURL)

	if _, err := h.roundTrip(ctx, protocol.MethodPing, nil); err != nil {
		return fmt.Errorf("%w: probe '%s': %w", errors.ErrConnectionFailed, h.baseURL, err)
	}

	h.active.Store(true)

	return nil
}

// Disconnect marks the connection inactive. There is no channel to close;
// the call is idempotent.
func (h *HTTP) Disconnect() error {
	h.active.Store(false)
	return nil
}

// Call performs one request/response round trip.
func (h *HTTP) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !h.IsActive() {
		return nil, fmt.Errorf("%w: server '%s' is not connected", errors.ErrConnectionFailed, h.entry.Name)
	}
	return h.roundTrip(ctx, method, params)
}

// IsActive reports whether the last probe succeeded and the connection has
// not been disconnected since.
func (h *HTTP) IsActive() bool {
	return h.active.Load()
}

// roundTrip POSTs one envelope to the base address and decodes the reply.
func (h *HTTP) roundTrip(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := h.nextID.Add(1)

	body, err := json.Marshal(protocol.NewRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConnectionFailed, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %s: status %d", errors.ErrConnectionFailed, method, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s: status %d", errors.ErrProtocol, method, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", errors.ErrConnectionFailed, err)
	}

	var envelope protocol.Response
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrProtocol, method, err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrProtocol, method, envelope.Error)
	}

	return envelope.Result, nil
}
