package api

import (
	"github.com/mcpgate/mcpgate/internal/tools"
)

// DomainTool is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainTool tools.Tool

// Tool represents one server-owned tool exposed through the API.
type Tool struct {
	// Name of the tool as the owning server knows it.
	Name string `doc:"Name of the tool" json:"name"`

	// CompositeName is the externally unique identifier embedding the owning server.
	CompositeName string `doc:"Globally unique tool identifier" json:"compositeName"`

	// Description is a human-readable description of the tool.
	// It can be thought of like a "hint" to the model.
	Description string `doc:"Description of what the tool does" json:"description,omitempty"`

	// InputSchema is JSONSchema defining the expected parameters for the tool.
	InputSchema *JSONSchema `doc:"Input parameters schema" json:"inputSchema,omitempty"`

	// Server is the name of the server that owns the tool.
	Server string `doc:"Name of the owning server" json:"server"`
}

// Tools represents a collection of Tool.
type Tools struct {
	Tools []Tool `json:"tools"`
}

// ToolsResponse represents the wrapped API response for tool collections.
type ToolsResponse struct {
	Body Tools
}

// ToolCallResponse represents the wrapped API response for calling a tool.
type ToolCallResponse struct {
	Body string
}

// JSONSchema defines the structure for a JSON schema object.
type JSONSchema struct {
	// Type defines the type for this schema, e.g. "object".
	Type string `json:"type"`

	// Properties represents a property name and associated object definition.
	Properties map[string]any `json:"properties,omitempty"`

	// Required lists the (keys of) Properties that are required.
	Required []string `json:"required,omitempty"`
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainTool) ToAPIType() (Tool, error) {
	var schema *JSONSchema
	if len(d.InputSchema) > 0 {
		schema = &JSONSchema{}
		if t, ok := d.InputSchema["type"].(string); ok {
			schema.Type = t
		}
		if props, ok := d.InputSchema["properties"].(map[string]any); ok {
			schema.Properties = props
		}
		schema.Required = requiredKeys(d.InputSchema["required"])
	}

	return Tool{
		Name:          d.Name,
		CompositeName: tools.Tool(d).CompositeName(),
		Description:   d.Description,
		InputSchema:   schema,
		Server:        d.ServerName,
	}, nil
}

// requiredKeys coerces a schema's "required" member into a string slice.
// Decoded JSON yields []any, in-process schemas may carry []string.
func requiredKeys(v any) []string {
	switch required := v.(type) {
	case []string:
		return required
	case []any:
		keys := make([]string, 0, len(required))
		for _, item := range required {
			if s, ok := item.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	default:
		return nil
	}
}
