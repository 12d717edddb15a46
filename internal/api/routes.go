package api

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcpgate/mcpgate/internal/contracts"
)

// APIVersion is the version used in the OpenAPI spec and URL paths.
const APIVersion = "v1"

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(
	router huma.API,
	healthMonitor contracts.MCPHealthMonitor,
	toolInvoker contracts.MCPToolInvoker,
) (string, error) {
	if router == nil || reflect.ValueOf(router).IsNil() {
		return "", fmt.Errorf("router cannot be nil")
	}
	if healthMonitor == nil || reflect.ValueOf(healthMonitor).IsNil() {
		return "", fmt.Errorf("health monitor cannot be nil")
	}
	if toolInvoker == nil || reflect.ValueOf(toolInvoker).IsNil() {
		return "", fmt.Errorf("tool invoker cannot be nil")
	}

	// Extract API version from the router's OpenAPI spec.
	apiVersionID := router.OpenAPI().Info.Version

	// Safe way to ensure /api/{version}.
	apiPathPrefix, err := url.JoinPath("/api", apiVersionID)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterHealthRoutes(versionedGroup, healthMonitor, "/health")
	RegisterServerRoutes(versionedGroup, toolInvoker, "/servers")
	RegisterToolRoutes(versionedGroup, toolInvoker, "/tools")

	return apiPathPrefix, nil
}
