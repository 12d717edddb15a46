package transport

import (
	"fmt"
	"time"
)

// Options contains optional configuration shared by the transport variants.
// NewOptions should be used to create instances of Options.
type Options struct {
	// CallTimeout bounds how long a correlated request may stay pending.
	CallTimeout time.Duration

	// HandshakeTimeout bounds the initialize exchange during Connect.
	HandshakeTimeout time.Duration

	// ReconnectBaseDelay is the first delay of the socket transport's
	// exponential backoff; it doubles on every subsequent attempt.
	ReconnectBaseDelay time.Duration

	// ReconnectMaxAttempts caps the socket transport's automatic
	// reconnection attempts. Once exhausted, the server stays disconnected
	// until an explicit reconnect.
	ReconnectMaxAttempts int
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order.
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

func defaultOptions() Options {
	return Options{
		CallTimeout:          30 * time.Second,
		HandshakeTimeout:     10 * time.Second,
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxAttempts: 5,
	}
}

// WithCallTimeout configures how long to wait for a correlated reply.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", timeout)
		}
		o.CallTimeout = timeout
		return nil
	}
}

// WithHandshakeTimeout configures how long to wait for the initialize exchange.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("handshake timeout must be positive, got %v", timeout)
		}
		o.HandshakeTimeout = timeout
		return nil
	}
}

// WithReconnectBaseDelay configures the socket transport's initial backoff delay.
func WithReconnectBaseDelay(delay time.Duration) Option {
	return func(o *Options) error {
		if delay <= 0 {
			return fmt.Errorf("reconnect base delay must be positive, got %v", delay)
		}
		o.ReconnectBaseDelay = delay
		return nil
	}
}

// WithReconnectMaxAttempts configures the socket transport's reconnection attempt cap.
// Zero disables automatic reconnection entirely.
func WithReconnectMaxAttempts(attempts int) Option {
	return func(o *Options) error {
		if attempts < 0 {
			return fmt.Errorf("reconnect attempts cannot be negative, got %d", attempts)
		}
		o.ReconnectMaxAttempts = attempts
		return nil
	}
}
