package client

import (
	"fmt"
	"time"

	"github.com/mcpgate/mcpgate/internal/health"
	"github.com/mcpgate/mcpgate/internal/transport"
)

// Options contains optional configuration for the client.
// NewOptions should be used to create instances of Options.
type Options struct {
	// DiscoveryTimeout bounds each tools/list request during initialization
	// and reconnection.
	DiscoveryTimeout time.Duration

	// ValidateArguments enables schema validation of tool-call arguments
	// against cached tool schemas before dispatch.
	ValidateArguments bool

	// TransportOptions are forwarded to every connection the client creates.
	TransportOptions []transport.Option

	// HealthOptions configure the client's health checker.
	HealthOptions []health.Option
}

// Option defines a functional option for configuring Options.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
func NewOptions(opts ...Option) (Options, error) {
	options := Options{
		DiscoveryTimeout: 15 * time.Second,
	}

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

// WithDiscoveryTimeout configures the per-server tool discovery deadline.
func WithDiscoveryTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("discovery timeout must be positive, got %v", timeout)
		}
		o.DiscoveryTimeout = timeout
		return nil
	}
}

// WithArgumentValidation enables or disables schema validation of tool-call
// arguments.
func WithArgumentValidation(enabled bool) Option {
	return func(o *Options) error {
		o.ValidateArguments = enabled
		return nil
	}
}

// WithTransportOptions configures options forwarded to every connection.
func WithTransportOptions(topts ...transport.Option) Option {
	return func(o *Options) error {
		o.TransportOptions = append(o.TransportOptions, topts...)
		return nil
	}
}

// WithHealthOptions configures the client's health checker.
func WithHealthOptions(hopts ...health.Option) Option {
	return func(o *Options) error {
		o.HealthOptions = append(o.HealthOptions, hopts...)
		return nil
	}
}
