// Package client owns the set of MCP server connections, drives the
// handshake and tool-discovery sequence, and exposes the normalized
// invocation surface consumed by the API layer and chat orchestration.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/contracts"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/health"
	"github.com/mcpgate/mcpgate/internal/protocol"
	"github.com/mcpgate/mcpgate/internal/tools"
	"github.com/mcpgate/mcpgate/internal/transport"
)

var _ contracts.MCPToolInvoker = (*Client)(nil)

// connectionFactory builds a connection for one server entry. Swappable in
// tests.
type connectionFactory func(entry config.ServerEntry, logger hclog.Logger, opt ...transport.Option) (contracts.Connection, error)

// Client is the root of the MCP subsystem. All keyed state (connections,
// tool cache) is owned exclusively by the Client and guarded by a mutex;
// connections for different servers never share state.
// NewClient should be used to create instances of Client.
type Client struct {
	logger  hclog.Logger
	codec   *tools.Codec
	checker *health.Checker
	opts    Options

	newConnection connectionFactory

	mu        sync.RWMutex
	entries   map[string]config.ServerEntry
	conns     map[string]contracts.Connection
	toolCache map[string][]tools.Tool
	disposed  bool
}

// NewClient creates a client for the enabled servers in the configuration.
// Connections are not established until Initialize is called.
func NewClient(logger hclog.Logger, cfg *config.Config, opt ...Option) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid client options: %w", err)
	}

	enabled := cfg.EnabledServers()
	entries := make(map[string]config.ServerEntry, len(enabled))
	names := make([]string, 0, len(enabled))
	for _, e := range enabled {
		entries[e.Name] = e
		names = append(names, e.Name)
	}

	checker, err := health.NewChecker(logger, health.NewTracker(names...), opts.HealthOptions...)
	if err != nil {
		return nil, fmt.Errorf("invalid health options: %w", err)
	}

	return &Client{
		logger:        logger.Named("client"),
		codec:         tools.NewCodec(),
		checker:       checker,
		opts:          opts,
		newConnection: transport.New,
		entries:       entries,
		conns:         make(map[string]contracts.Connection, len(enabled)),
		toolCache:     make(map[string][]tools.Tool, len(enabled)),
	}, nil
}

// HealthMonitor exposes the health records collected for the client's servers.
func (c *Client) HealthMonitor() contracts.MCPHealthMonitor {
	return c.checker.Tracker()
}

// Initialize connects every enabled server and runs tool discovery for each.
// A failure on any server aborts the whole call and tears down whatever was
// already connected: there is no partial-success continuation. On success,
// periodic health checks start for every server.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.RLock()
	if c.disposed {
		c.mu.RUnlock()
		return fmt.Errorf("%w: client is disposed", errors.ErrBadRequest)
	}
	entries := make([]config.ServerEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	c.logger.Info("initializing MCP servers", "count", len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		g.Go(func() error {
			return c.connectServer(gctx, entry)
		})
	}

	if err := g.Wait(); err != nil {
		c.teardownConnections()
		return fmt.Errorf("initialization failed: %w", err)
	}

	c.mu.RLock()
	for name, conn := range c.conns {
		c.checker.StartPeriodic(name, conn)
	}
	c.mu.RUnlock()

	return nil
}

// connectServer establishes one server's connection and caches its tools.
func (c *Client) connectServer(ctx context.Context, entry config.ServerEntry) error {
	conn, err := c.newConnection(entry, c.logger, c.opts.TransportOptions...)
	if err != nil {
		return fmt.Errorf("server '%s': %w", entry.Name, err)
	}

	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("server '%s': %w", entry.Name, err)
	}

	discovered, err := c.discoverTools(ctx, entry.Name, conn)
	if err != nil {
		_ = conn.Disconnect()
		return err
	}

	c.mu.Lock()
	c.conns[entry.Name] = conn
	c.toolCache[entry.Name] = discovered
	c.mu.Unlock()
	c.codec.RegisterServer(entry.Name)

	c.logger.Info("server ready", "server", entry.Name, "tools", len(discovered))

	return nil
}

// discoverTools issues a tools/list request and converts the descriptors.
func (c *Client) discoverTools(ctx context.Context, name string, conn contracts.Connection) ([]tools.Tool, error) {
	discoveryCtx, cancel := context.WithTimeout(ctx, c.opts.DiscoveryTimeout)
	defer cancel()

	raw, err := conn.Call(discoveryCtx, protocol.MethodListTools, nil)
	if err != nil {
		return nil, fmt.Errorf("server '%s': tool discovery: %w", name, err)
	}

	var result protocol.ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: server '%s': malformed tools/list result: %w", errors.ErrProtocol, name, err)
	}

	return tools.FromDescriptors(name, result.Tools), nil
}

// ListServers returns the names of all connected servers, sorted.
func (c *Client) ListServers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.conns))
	for name := range c.conns {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// ListAllTools returns the cached tools of every server. It never triggers
// network activity.
func (c *Client) ListAllTools() []tools.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]tools.Tool, 0)
	for _, cached := range c.toolCache {
		all = append(all, cached...)
	}
	slices.SortFunc(all, func(a, b tools.Tool) int {
		if cmp := strings.Compare(a.ServerName, b.ServerName); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Name, b.Name)
	})

	return all
}

// ListToolsByServer returns the cached tools of one server.
func (c *Client) ListToolsByServer(name string) ([]tools.Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.toolCache[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, name)
	}

	return slices.Clone(cached), nil
}

// CallTool invokes a tool on a named server and returns the raw result
// payload. The connection must exist and be active; calls on disconnected
// servers reject promptly rather than hanging.
func (c *Client) CallTool(ctx context.Context, server, tool string, args map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	conn, ok := c.conns[server]
	cached := c.toolCache[server]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, server)
	}
	if !conn.IsActive() {
		return nil, fmt.Errorf("%w: server '%s' is not connected", errors.ErrConnectionFailed, server)
	}

	if c.opts.ValidateArguments {
		if err := validateArguments(cached, tool, args); err != nil {
			return nil, err
		}
	}

	raw, err := conn.Call(ctx, protocol.MethodCallTool, protocol.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("server '%s': tool '%s': %w", server, tool, err)
	}

	return raw, nil
}

// CallUnifiedTool decodes the call's composite name, delegates to CallTool
// and flattens the result into the string representation consumed by chat
// orchestration.
func (c *Client) CallUnifiedTool(ctx context.Context, call tools.ToolCall) (string, error) {
	server, tool, err := c.codec.DecodeName(call.Name)
	if err != nil {
		return "", err
	}

	raw, err := c.CallTool(ctx, server, tool, call.Arguments)
	if err != nil {
		return "", err
	}

	text, isErr := tools.FlattenResult(raw)
	if isErr {
		return "", fmt.Errorf("%w: %s: %s", errors.ErrToolCallFailed, call.Name, text)
	}

	return text, nil
}

// ReconnectServer tears down one server's connection, recreates it and
// re-runs tool discovery for that server only.
func (c *Client) ReconnectServer(ctx context.Context, name string) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("%w: client is disposed", errors.ErrBadRequest)
	}
	entry, ok := c.entries[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrServerNotFound, name)
	}
	old := c.conns[name]
	delete(c.conns, name)
	delete(c.toolCache, name)
	c.mu.Unlock()

	c.checker.StopPeriodic(name)
	c.codec.UnregisterServer(name)
	if old != nil {
		_ = old.Disconnect()
	}

	c.logger.Info("reconnecting server", "server", name)

	if err := c.connectServer(ctx, entry); err != nil {
		return err
	}

	c.mu.RLock()
	conn := c.conns[name]
	c.mu.RUnlock()
	c.checker.StartPeriodic(name, conn)

	return nil
}

// Dispose disconnects every connection, stops every health-check schedule
// and clears all caches. Repeated calls are no-ops.
func (c *Client) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()

	c.checker.StopAll()
	c.teardownConnections()

	c.logger.Info("client disposed")
}

// teardownConnections disconnects and forgets every connection.
func (c *Client) teardownConnections() {
	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[string]contracts.Connection)
	c.toolCache = make(map[string][]tools.Tool)
	c.mu.Unlock()

	for name, conn := range conns {
		c.codec.UnregisterServer(name)
		if err := conn.Disconnect(); err != nil {
			c.logger.Error("error disconnecting server", "server", name, "error", err)
		}
	}
}

// validateArguments checks args against the tool's cached input schema.
// Tools absent from the cache are not validated; the server remains the
// authority on unknown tools.
func validateArguments(cached []tools.Tool, tool string, args map[string]any) error {
	var schema map[string]any
	for _, t := range cached {
		if t.Name == tool {
			schema = t.InputSchema
			break
		}
	}
	if schema == nil {
		return nil
	}

	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: argument validation for '%s': %w", errors.ErrBadRequest, tool, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return fmt.Errorf("%w: invalid arguments for '%s': %s", errors.ErrBadRequest, tool, strings.Join(reasons, "; "))
	}

	return nil
}
