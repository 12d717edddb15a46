package config

import (
	"fmt"
	"os"
	"strings"
)

// Transport kinds supported for MCP server connections.
const (
	TransportStdio  Transport = "stdio"
	TransportSocket Transport = "socket"
	TransportHTTP   Transport = "http"
)

// Transport identifies the channel used to exchange protocol messages
// with one server.
type Transport string

var (
	_ Loader = (*DefaultLoader)(nil)
)

// Loader loads server descriptors from a configuration file.
type Loader interface {
	Load(path string) (*Config, error)
}

// DefaultLoader is the TOML-backed Loader implementation.
type DefaultLoader struct{}

// Config represents the .mcpgate.toml file structure.
// Descriptors are immutable after load.
type Config struct {
	Servers []ServerEntry `toml:"servers"`
}

// ServerEntry describes a single configured MCP server.
type ServerEntry struct {
	// Name is the unique name/ID for the server, referenced by the user.
	// e.g. 'github-server'
	Name string `json:"name" toml:"name"`

	// Transport selects the connection kind: stdio, socket or http.
	Transport Transport `json:"transport" toml:"transport"`

	// Command is the executable to spawn (stdio only).
	Command string `json:"command,omitempty" toml:"command,omitempty"`

	// Args are passed to the spawned command (stdio only).
	Args []string `json:"args,omitempty" toml:"args,omitempty"`

	// Env holds extra environment variables for the spawned command,
	// as KEY=VALUE pairs (stdio only).
	Env []string `json:"env,omitempty" toml:"env,omitempty"`

	// Host and Port locate the server (socket and http).
	Host string `json:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" toml:"port,omitempty"`

	// Path is the URL path appended to host:port (socket and http).
	Path string `json:"path,omitempty" toml:"path,omitempty"`

	// Enabled controls whether a connection is created for this server.
	Enabled bool `json:"enabled" toml:"enabled"`
}

// Address returns the host:port[path] target for socket and http servers.
func (e *ServerEntry) Address() string {
	return fmt.Sprintf("%s:%d%s", e.Host, e.Port, e.Path)
}

// Environ returns the process environment for a stdio server: the parent
// environment with the entry's own variables appended (last wins).
func (e *ServerEntry) Environ() []string {
	if len(e.Env) == 0 {
		return os.Environ()
	}
	return append(os.Environ(), e.Env...)
}

// EnabledServers returns only the entries with Enabled set.
func (c *Config) EnabledServers() []ServerEntry {
	enabled := make([]ServerEntry, 0, len(c.Servers))
	for _, s := range c.Servers {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// validate checks structural invariants for the whole file.
func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Servers))
	for i := range c.Servers {
		s := &c.Servers[i]
		if err := s.validate(); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate server name '%s'", ErrInvalidValue, s.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// validate checks a single server entry for required fields per transport.
func (e *ServerEntry) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: server name cannot be empty", ErrInvalidValue)
	}

	switch e.Transport {
	case TransportStdio:
		if strings.TrimSpace(e.Command) == "" {
			return fmt.Errorf("%w: server '%s': stdio transport requires a command", ErrInvalidValue, e.Name)
		}
	case TransportSocket, TransportHTTP:
		if strings.TrimSpace(e.Host) == "" {
			return fmt.Errorf("%w: server '%s': %s transport requires a host", ErrInvalidValue, e.Name, e.Transport)
		}
		if e.Port <= 0 || e.Port > 65535 {
			return fmt.Errorf("%w: server '%s': invalid port %d", ErrInvalidValue, e.Name, e.Port)
		}
		if e.Path != "" && !strings.HasPrefix(e.Path, "/") {
			return fmt.Errorf("%w: server '%s': path must start with '/'", ErrInvalidValue, e.Name)
		}
	default:
		return fmt.Errorf("%w: server '%s': unknown transport '%s'", ErrInvalidValue, e.Name, e.Transport)
	}

	return nil
}
