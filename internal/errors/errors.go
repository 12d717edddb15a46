// Package errors defines domain-level errors used throughout the application.
// These errors represent connectivity and protocol failures and are mapped to
// appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the caller provided invalid input or made a malformed request.
	// This typically results from validation failures or incorrect request parameters.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrConnectionFailed indicates that a transport channel could not be established,
	// e.g. a subprocess failed to spawn, a WebSocket dial failed, or an HTTP probe failed.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectionClosed indicates that an established transport channel was lost.
	// Every request still pending on the connection fails with this error.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout indicates that no correlated reply arrived within the configured deadline.
	// The pending request is removed from the correlation table when this fires.
	// Recommended to map to HTTP 504 Gateway Timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrProtocol indicates a malformed payload or a populated JSON-RPC error field
	// in an otherwise well-formed reply from an MCP server.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrProtocol = errors.New("protocol error")

	// ErrServerNotFound indicates that the requested MCP server does not exist or is not configured.
	// This occurs when trying to access operations on a server that hasn't been registered.
	// Recommended to map to HTTP 404 Not Found.
	ErrServerNotFound = errors.New("server not found")

	// ErrToolNotFound indicates an unknown tool name, or a composite tool name that
	// could not be decoded back into a (server, tool) pair.
	// Recommended to map to HTTP 404 Not Found.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolCallFailed indicates that calling a tool on an MCP server failed.
	// This represents a communication or execution error with the external MCP server.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrToolCallFailed = errors.New("tool call failed")

	// ErrHealthNotTracked indicates that health monitoring is not enabled for the specified server.
	// This occurs when trying to get health status for a server that isn't being monitored.
	// Health check failures themselves are never surfaced as errors; they are
	// absorbed into health records.
	// Recommended to map to HTTP 404 Not Found.
	ErrHealthNotTracked = errors.New("server health is not being tracked")
)
