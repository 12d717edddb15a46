// Package contracts defines the interfaces through which the subsystems of
// mcpgate collaborate, keeping packages decoupled from concrete types.
package contracts

import (
	"context"
	"encoding/json"

	"github.com/mcpgate/mcpgate/internal/domain"
	"github.com/mcpgate/mcpgate/internal/tools"
)

// Connection is one transport channel to a single MCP server.
// Implementations are stdio (child process), socket (WebSocket) and http.
// A Connection is never shared between servers.
type Connection interface {
	// Connect establishes the channel, including any transport handshake.
	Connect(ctx context.Context) error

	// Disconnect tears the channel down. It is idempotent.
	Disconnect() error

	// Call sends one request envelope and awaits its correlated reply,
	// returning the raw result payload.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// IsActive reports current connectivity.
	IsActive() bool
}

// MCPHealthMonitor provides access to the health status of MCP servers.
type MCPHealthMonitor interface {
	// Status returns the health record for a single tracked server.
	Status(name string) (domain.ServerHealth, error)

	// List returns a copy of all known server health records.
	List() []domain.ServerHealth

	// Summary aggregates the latest records across all tracked servers.
	Summary() domain.HealthSummary
}

// MCPToolInvoker is the normalized invocation surface consumed by the API
// layer and by chat orchestration.
type MCPToolInvoker interface {
	// ListServers returns the names of all connected servers.
	ListServers() []string

	// ListAllTools returns the cached tools of every server.
	ListAllTools() []tools.Tool

	// ListToolsByServer returns the cached tools of one server.
	ListToolsByServer(name string) ([]tools.Tool, error)

	// CallTool invokes a tool on a named server.
	CallTool(ctx context.Context, server, tool string, args map[string]any) (json.RawMessage, error)

	// CallUnifiedTool decodes a composite tool name, invokes the tool and
	// flattens the result into a string.
	CallUnifiedTool(ctx context.Context, call tools.ToolCall) (string, error)

	// ReconnectServer tears down and re-establishes one server's connection,
	// re-running tool discovery for it.
	ReconnectServer(ctx context.Context, name string) error
}
