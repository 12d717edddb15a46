package tools

import (
	"encoding/json"
	"strings"

	"github.com/mcpgate/mcpgate/internal/protocol"
)

// FlattenResult converts a raw tools/call result payload into the string
// representation consumed by chat orchestration, joining all text content
// items. Payloads that are not shaped as a tool result are passed through
// verbatim. The boolean reports whether the server flagged the result as an
// error.
func FlattenResult(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var result protocol.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw), false
	}

	if len(result.Content) == 0 {
		return string(raw), result.IsError
	}

	parts := make([]string, 0, len(result.Content))
	for _, item := range result.Content {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	if len(parts) == 0 {
		return string(raw), result.IsError
	}

	return strings.Join(parts, "\n"), result.IsError
}
