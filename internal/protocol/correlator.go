package protocol

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcpgate/mcpgate/internal/errors"
)

// Correlator maps outstanding request ids to single-fire completions.
// Each entry is removed exactly once, by whichever of a matching reply,
// a timeout, or connection closure fires first. One Correlator is owned
// by each connection; it is safe for concurrent use.
type Correlator struct {
	mu      sync.Mutex
	pending map[int64]*PendingCall
	nextID  atomic.Int64
}

// PendingCall is the completion handle for one outstanding request.
type PendingCall struct {
	id   int64
	c    *Correlator
	done chan outcome
}

type outcome struct {
	resp *Response
	err  error
}

// NewCorrelator creates an empty correlation table.
func NewCorrelator() *Correlator {
	return &Correlator{
		pending: make(map[int64]*PendingCall),
	}
}

// NextID returns the next correlation id from the connection's private
// monotonically increasing counter.
func (c *Correlator) NextID() int64 {
	return c.nextID.Add(1)
}

// Register records a pending request under the given id and returns its
// completion handle.
func (c *Correlator) Register(id int64) *PendingCall {
	p := &PendingCall{
		id:   id,
		c:    c,
		done: make(chan outcome, 1),
	}

	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()

	return p
}

// Resolve completes the pending request matching the reply's id.
// It reports false if no such request is outstanding, e.g. when the reply
// arrives after the request already timed out.
func (c *Correlator) Resolve(resp *Response) bool {
	return c.complete(resp.ID, outcome{resp: resp})
}

// Fail completes the pending request with an error.
// It reports false if the request was already completed.
func (c *Correlator) Fail(id int64, err error) bool {
	return c.complete(id, outcome{err: err})
}

// FailAll completes every outstanding request with the given error.
// Used when the owning connection closes.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]*PendingCall)
	c.mu.Unlock()

	for _, p := range pending {
		p.done <- outcome{err: err}
	}
}

// Len returns the number of outstanding requests.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// complete removes the entry under the lock, so exactly one completion
// can ever reach the buffered channel.
func (c *Correlator) complete(id int64, o outcome) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	p.done <- o

	return true
}

// Wait blocks until the request completes, times out, or the context is
// canceled. On timeout or cancellation the entry is removed from the table
// before Wait returns; if a reply won the race, that reply is returned
// instead.
func (p *PendingCall) Wait(ctx context.Context, timeout time.Duration) (*Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-p.done:
		return o.resp, o.err
	case <-timer.C:
		p.c.Fail(p.id, fmt.Errorf("%w: no reply within %s", errors.ErrTimeout, timeout))
		o := <-p.done
		return o.resp, o.err
	case <-ctx.Done():
		err := ctx.Err()
		if err == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		p.c.Fail(p.id, err)
		o := <-p.done
		return o.resp, o.err
	}
}
