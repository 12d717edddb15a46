package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/contracts"
)

// APIDependencies contains the required external dependencies for the API server.
// NewAPIDependencies should be used to create instances of APIDependencies.
type APIDependencies struct {
	// Addr specifies the network address to bind (e.g., "0.0.0.0:8090").
	Addr string

	// ToolInvoker exposes the connected MCP servers and their tools.
	ToolInvoker contracts.MCPToolInvoker

	// HealthMonitor provides server health status.
	HealthMonitor contracts.MCPHealthMonitor

	// Logger for API server operations.
	Logger hclog.Logger
}

// NewAPIDependencies creates and validates APIDependencies.
func NewAPIDependencies(
	logger hclog.Logger,
	toolInvoker contracts.MCPToolInvoker,
	healthMonitor contracts.MCPHealthMonitor,
	addr string,
) (APIDependencies, error) {
	deps := APIDependencies{
		Addr:          addr,
		ToolInvoker:   toolInvoker,
		HealthMonitor: healthMonitor,
		Logger:        logger,
	}

	if err := deps.Validate(); err != nil {
		return APIDependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d APIDependencies) Validate() error {
	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}
	if d.ToolInvoker == nil || reflect.ValueOf(d.ToolInvoker).IsNil() {
		return fmt.Errorf("tool invoker cannot be nil")
	}
	if d.HealthMonitor == nil || reflect.ValueOf(d.HealthMonitor).IsNil() {
		return fmt.Errorf("health monitor cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}
