// Package daemon assembles the long-running process: the MCP client with all
// of its server connections, and the HTTP API that fronts it.
package daemon

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/client"
)

// Daemon wires the MCP client and the API server together.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger    hclog.Logger
	client    *client.Client
	apiServer *APIServer
	opts      Options
}

// NewDaemon creates a daemon from validated dependencies and options.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for daemon: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	mcpClient, err := client.NewClient(deps.Logger, deps.Config, opts.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	apiDeps, err := NewAPIDependencies(deps.Logger, mcpClient, mcpClient.HealthMonitor(), deps.APIAddr)
	if err != nil {
		return nil, err
	}

	apiServer, err := NewAPIServer(apiDeps, opts.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		logger:    deps.Logger.Named("daemon"),
		client:    mcpClient,
		apiServer: apiServer,
		opts:      opts,
	}, nil
}

// StartAndManage connects all configured MCP servers and serves the API
// until the context is canceled. All connections are disposed on the way
// out.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, d.opts.ClientInitTimeout)
	defer cancel()

	if err := d.client.Initialize(initCtx); err != nil {
		return fmt.Errorf("failed to initialize MCP servers: %w", err)
	}
	defer d.client.Dispose()

	d.logger.Info("MCP servers ready", "servers", d.client.ListServers())

	if err := d.apiServer.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("API server failed: %w", err)
	}

	return nil
}

// validateAddr checks if the address is a valid "host:port" string.
func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	if port == "" {
		return fmt.Errorf("address missing port")
	}

	if _, err := strconv.Atoi(port); err != nil {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return fmt.Errorf("invalid address port: %s", port)
		}
	}

	_ = host // it's ok to accept an empty host (listens on all interfaces)
	return nil
}
