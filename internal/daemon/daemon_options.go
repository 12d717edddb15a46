package daemon

import (
	"fmt"
	"time"

	"github.com/mcpgate/mcpgate/internal/client"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// ClientOptions contains functional options for the MCP client.
	ClientOptions []client.Option

	// ClientInitTimeout specifies how long to wait for MCP server initialization.
	ClientInitTimeout time.Duration
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithClientOptions configures MCP client options.
// Replaces all previous client configuration.
func WithClientOptions(clientOpts ...client.Option) Option {
	return func(o *Options) error {
		o.ClientOptions = clientOpts
		return nil
	}
}

// WithMCPServerInitTimeout configures how long to wait for MCP servers to initialize.
func WithMCPServerInitTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("init timeout must be positive, got %v", timeout)
		}
		o.ClientInitTimeout = timeout
		return nil
	}
}

// DefaultClientInitTimeout is the default time to wait for MCP server initialization.
func DefaultClientInitTimeout() time.Duration {
	return 30 * time.Second
}

// defaultOptions returns Options with default values.
func defaultOptions() Options {
	return Options{
		ClientInitTimeout: DefaultClientInitTimeout(),
	}
}
