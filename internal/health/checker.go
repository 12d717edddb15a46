package health

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mcpgate/mcpgate/internal/contracts"
	"github.com/mcpgate/mcpgate/internal/domain"
	"github.com/mcpgate/mcpgate/internal/errors"
	"github.com/mcpgate/mcpgate/internal/protocol"
)

// Checker probes connections and drives per-server periodic schedules.
// NewChecker should be used to create instances of Checker.
type Checker struct {
	logger  hclog.Logger
	tracker *Tracker
	opts    Options

	mu    sync.Mutex
	stops map[string]chan struct{}
}

// NewChecker creates a checker recording into the given tracker.
func NewChecker(logger hclog.Logger, tracker *Tracker, opt ...Option) (*Checker, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Checker{
		logger:  logger.Named("health"),
		tracker: tracker,
		opts:    opts,
		stops:   make(map[string]chan struct{}),
	}, nil
}

// Tracker returns the tracker the checker records into.
func (c *Checker) Tracker() *Tracker {
	return c.tracker
}

// Check probes one connection and records the outcome. It always returns a
// record and never an error: probe failures are captured in the record's
// LastError and mark it unhealthy. An inactive connection is recorded as
// unreachable immediately, with zero latency.
func (c *Checker) Check(ctx context.Context, name string, conn contracts.Connection) domain.ServerHealth {
	c.tracker.Track(name)

	if conn == nil || !conn.IsActive() {
		zero := time.Duration(0)
		_ = c.tracker.Update(name, domain.HealthStatusUnreachable, &zero, "connection inactive")
		record, _ := c.tracker.Status(name)
		return record
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	// Liveness probe followed by a lightweight discovery probe, measuring
	// the wall-clock cost of the pair.
	start := time.Now()
	_, err := conn.Call(probeCtx, protocol.MethodPing, nil)
	if err == nil {
		_, err = conn.Call(probeCtx, protocol.MethodListTools, nil)
	}
	latency := time.Since(start)

	status := domain.HealthStatusOK
	lastError := ""
	if err != nil {
		lastError = err.Error()
		switch {
		case stderrors.Is(err, errors.ErrTimeout) || stderrors.Is(err, context.DeadlineExceeded):
			status = domain.HealthStatusTimeout
		default:
			status = domain.HealthStatusUnreachable
		}
		c.logger.Debug("health probe failed", "server", name, "error", err)
	}

	_ = c.tracker.Update(name, status, &latency, lastError)
	record, _ := c.tracker.Status(name)

	return record
}

// StartPeriodic schedules recurring checks of one connection at the
// configured interval. A previous schedule for the same server is replaced.
func (c *Checker) StartPeriodic(name string, conn contracts.Connection) {
	c.mu.Lock()
	if stop, ok := c.stops[name]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	c.stops[name] = stop
	c.mu.Unlock()

	c.tracker.Track(name)

	go func() {
		ticker := time.NewTicker(c.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Check(context.Background(), name, conn)
			}
		}
	}()
}

// StopPeriodic cancels the schedule for one server. It is safe to call
// when no schedule is active.
func (c *Checker) StopPeriodic(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stop, ok := c.stops[name]; ok {
		close(stop)
		delete(c.stops, name)
	}
}

// StopAll cancels every active schedule.
func (c *Checker) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, stop := range c.stops {
		close(stop)
		delete(c.stops, name)
	}
}

// Options contains optional configuration for the checker.
// NewOptions should be used to create instances of Options.
type Options struct {
	// Interval is the period between scheduled checks per server.
	Interval time.Duration

	// ProbeTimeout bounds each probe pair.
	ProbeTimeout time.Duration
}

// Option defines a functional option for configuring Options.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
func NewOptions(opts ...Option) (Options, error) {
	options := Options{
		Interval:     30 * time.Second,
		ProbeTimeout: 5 * time.Second,
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

// WithInterval configures the period between scheduled checks.
func WithInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %v", interval)
		}
		o.Interval = interval
		return nil
	}
}

// WithProbeTimeout configures the per-probe deadline.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("probe timeout must be positive, got %v", timeout)
		}
		o.ProbeTimeout = timeout
		return nil
	}
}
