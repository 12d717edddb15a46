// Package tools converts between a server's native tool descriptors and the
// application's unified tool representation, including the composite tool
// names that embed the owning server's identity.
package tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// Separator joins a server name and a tool name into a composite name.
// Tool names exposed to models must be single identifiers, so the composite
// uses a double underscore rather than a character that schema validators
// reject.
const Separator = "__"

// Tool is the unified representation of one server-owned tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
	ServerName  string         `json:"serverName"`
}

// CompositeName returns the externally visible identifier for the tool.
func (t Tool) CompositeName() string {
	return EncodeName(t.ServerName, t.Name)
}

// ToolCall is the unified invocation type consumed from chat orchestration:
// a composite tool name plus its arguments.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Codec decodes composite tool names. It keeps a registry of known server
// names so names that themselves contain the separator still decode
// unambiguously: decode consults the registry with longest-match before
// falling back to a plain split on the first separator.
type Codec struct {
	mu      sync.RWMutex
	servers map[string]struct{}
}

// NewCodec creates a Codec with an empty server registry.
func NewCodec() *Codec {
	return &Codec{
		servers: make(map[string]struct{}),
	}
}

// EncodeName derives the composite external name from (server, tool).
func EncodeName(server, tool string) string {
	return server + Separator + tool
}

// RegisterServer records a server name for registry-based decoding.
func (c *Codec) RegisterServer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.servers[name] = struct{}{}
}

// UnregisterServer removes a server name from the registry.
func (c *Codec) UnregisterServer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.servers, name)
}

// DecodeName splits a composite name back into (server, tool).
// Registered server names are matched first, longest match winning, so a
// server named "alpha__beta" is preferred over a server named "alpha" when
// both are registered. Unregistered names fall back to splitting on the
// first separator occurrence.
func (c *Codec) DecodeName(composite string) (server string, tool string, err error) {
	c.mu.RLock()
	for name := range c.servers {
		prefix := name + Separator
		if strings.HasPrefix(composite, prefix) && len(name) > len(server) {
			server = name
			tool = composite[len(prefix):]
		}
	}
	c.mu.RUnlock()

	if server != "" && tool != "" {
		return server, tool, nil
	}

	before, after, found := strings.Cut(composite, Separator)
	if !found || before == "" || after == "" {
		return "", "", fmt.Errorf("%w: cannot decode composite tool name '%s'", errors.ErrToolNotFound, composite)
	}

	return before, after, nil
}

// FromDescriptors converts a server's native tools/list descriptors into
// unified tools, normalizing every input schema.
func FromDescriptors(server string, descriptors []protocol.ToolDescriptor) []Tool {
	converted := make([]Tool, 0, len(descriptors))
	for _, d := range descriptors {
		converted = append(converted, Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: ConvertSchema(d.InputSchema),
			ServerName:  server,
		})
	}
	return converted
}

// ConvertSchema normalizes a native parameter schema into the
// {type: object, properties, required} shape. Schemas already in that shape
// pass through unchanged; anything else is wrapped best-effort. The
// function is idempotent.
func ConvertSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	if t, ok := schema["type"].(string); ok && t == "object" {
		if _, ok := schema["properties"]; ok {
			return schema
		}
		// An object schema without properties gets an empty property set.
		normalized := map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
		if required, ok := schema["required"]; ok {
			normalized["required"] = required
		}
		return normalized
	}

	// Not object-shaped at all: wrap the input as a single "value" parameter.
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": schema,
		},
	}
}
