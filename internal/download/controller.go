package download

import (
	"context"
	"sync/atomic"
)

// State is the lifecycle state of a run.
type State int32

const (
	StateRunning State = iota
	StateCancelling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Controller owns the cancellation state of one run.
//
// Running moves to Cancelling on the first Cancel call, or when the parent
// context is done. Stop moves any state to Stopped. There is no way back to
// Running.
type Controller struct {
	state     atomic.Int32
	cancelled atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
}

// NewController creates a Controller in the Running state. Its context is
// derived from parent.
func NewController(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{ctx: ctx, cancel: cancel}
	c.stopWatch = context.AfterFunc(parent, func() { c.Cancel() })
	return c
}

// Context returns the context handed to every task of the run.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Cancel moves the run to Cancelling and cancels its context. It reports
// whether this call performed the transition; later calls have no effect.
func (c *Controller) Cancel() bool {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateCancelling)) {
		return false
	}
	c.cancelled.Store(true)
	c.cancel()
	return true
}

// Cancelled reports whether the run left Running other than through Stop.
// A cancelled parent context counts even if its watcher has not run yet.
func (c *Controller) Cancelled() bool {
	if c.ctx.Err() != nil && c.State() == StateRunning {
		c.Cancel()
	}
	return c.cancelled.Load()
}

// Stop moves the run to its terminal state and releases the context.
func (c *Controller) Stop() {
	c.stopWatch()
	c.state.Store(int32(StateStopped))
	c.cancel()
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}
