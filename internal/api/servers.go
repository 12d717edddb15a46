package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcpgate/mcpgate/internal/contracts"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/tools"
)

// ServersResponse represents the wrapped API response for a list of servers.
type ServersResponse struct {
	Body []string
}

// ServerToolsRequest represents the incoming API request for giving the configured tools schemas for a server.
type ServerToolsRequest struct {
	Name string `doc:"Name of the server to lookup tools for" example:"github-server" path:"name"`
}

// ServerToolCallRequest represents the incoming API request to call a tool on a particular server.
type ServerToolCallRequest struct {
	Server string         `doc:"Name of the server"       example:"github-server" path:"server"`
	Tool   string         `doc:"Name of the tool to call" example:"search_issues" path:"tool"`
	Body   map[string]any `doc:"Arguments for the tool"                           path:"body"`
}

// ServerReconnectRequest represents the incoming API request to reconnect a server.
type ServerReconnectRequest struct {
	Server string `doc:"Name of the server to reconnect" example:"github-server" path:"server"`
}

// ServerReconnectResponse represents the wrapped API response for a reconnect.
type ServerReconnectResponse struct {
	Body struct {
		Server string `doc:"Name of the reconnected server" json:"server"`
		Status string `doc:"Outcome of the reconnect"       json:"status"`
	}
}

// RegisterServerRoutes sets up server-related API endpoint routes.
func RegisterServerRoutes(routerAPI huma.API, invoker contracts.MCPToolInvoker, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Summary:     "List all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersResponse, error) {
			return handleServers(invoker)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listTools",
			Method:      http.MethodGet,
			Path:        "/{name}/tools",
			Summary:     "List server tools",
			Tags:        append(tags, "Tools"),
		},
		func(ctx context.Context, input *ServerToolsRequest) (*ToolsResponse, error) {
			return handleServerTools(invoker, input.Name)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "callTool",
			Method:      http.MethodPost,
			Path:        "/{server}/tools/{tool}",
			Summary:     "Call a tool for a server",
			Tags:        append(tags, "Tools"),
		},
		func(ctx context.Context, input *ServerToolCallRequest) (*ToolCallResponse, error) {
			return handleServerToolCall(ctx, invoker, input.Server, input.Tool, input.Body)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "reconnectServer",
			Method:      http.MethodPost,
			Path:        "/{server}/reconnect",
			Summary:     "Tear down and re-establish a server's connection",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerReconnectRequest) (*ServerReconnectResponse, error) {
			return handleServerReconnect(ctx, invoker, input.Server)
		},
	)
}

// RegisterToolRoutes sets up the cross-server tool listing route.
func RegisterToolRoutes(routerAPI huma.API, invoker contracts.MCPToolInvoker, apiPathPrefix string) {
	toolsAPI := huma.NewGroup(routerAPI, apiPathPrefix)

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "listAllTools",
			Method:      http.MethodGet,
			Summary:     "List the tools of every server under their composite names",
			Tags:        []string{"Tools"},
		},
		func(ctx context.Context, _ *struct{}) (*ToolsResponse, error) {
			return toAPITools(invoker.ListAllTools())
		},
	)
}

// handleServers returns the list of connected MCP servers.
func handleServers(invoker contracts.MCPToolInvoker) (*ServersResponse, error) {
	resp := &ServersResponse{}
	resp.Body = invoker.ListServers()

	return resp, nil
}

// handleServerTools returns the cached tool schemas for a given server.
func handleServerTools(invoker contracts.MCPToolInvoker, name string) (*ToolsResponse, error) {
	serverTools, err := invoker.ListToolsByServer(name)
	if err != nil {
		return nil, err
	}

	return toAPITools(serverTools)
}

// handleServerToolCall handles making a call to a specific tool which exists on an MCP server.
func handleServerToolCall(
	ctx context.Context,
	invoker contracts.MCPToolInvoker,
	server string,
	tool string,
	args map[string]any,
) (*ToolCallResponse, error) {
	raw, err := invoker.CallTool(ctx, server, tool, args)
	if err != nil {
		return nil, err
	}

	text, isError := tools.FlattenResult(raw)
	if isError {
		return nil, fmt.Errorf("%w: %s/%s: %s", errors.ErrToolCallFailed, server, tool, text)
	}

	resp := &ToolCallResponse{}
	resp.Body = text

	return resp, nil
}

// handleServerReconnect handles tearing down and re-establishing one server's connection.
func handleServerReconnect(
	ctx context.Context,
	invoker contracts.MCPToolInvoker,
	server string,
) (*ServerReconnectResponse, error) {
	if err := invoker.ReconnectServer(ctx, server); err != nil {
		return nil, err
	}

	resp := &ServerReconnectResponse{}
	resp.Body.Server = server
	resp.Body.Status = "reconnected"

	return resp, nil
}

// toAPITools converts domain tools into the API representation.
func toAPITools(domainTools []tools.Tool) (*ToolsResponse, error) {
	apiTools := make([]Tool, 0, len(domainTools))
	for _, t := range domainTools {
		data, err := DomainTool(t).ToAPIType()
		if err != nil {
			return nil, err
		}
		apiTools = append(apiTools, data)
	}

	resp := &ToolsResponse{}
	resp.Body = Tools{Tools: apiTools}

	return resp, nil
}
