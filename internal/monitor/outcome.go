package monitor

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// Status is a watcher's position in its lifecycle as seen by the monitor.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one pool's watcher.
type Outcome struct {
	Pool   common.Address
	Status Status
	Err    error
}

func classify(pool common.Address, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Pool: pool, Status: StatusCompleted}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Outcome{Pool: pool, Status: StatusCancelled, Err: err}
	default:
		return Outcome{Pool: pool, Status: StatusFailed, Err: err}
	}
}

// Handle tracks one running watcher.
type Handle struct {
	pool    common.Address
	done    chan struct{}
	outcome Outcome
}

func newHandle(pool common.Address) *Handle {
	return &Handle{pool: pool, done: make(chan struct{})}
}

// Pool returns the watched pool address.
func (h *Handle) Pool() common.Address {
	return h.pool
}

// Done is closed when the watcher has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the terminal outcome, or StatusRunning while the watcher is live.
func (h *Handle) Outcome() Outcome {
	select {
	case <-h.done:
		return h.outcome
	default:
		return Outcome{Pool: h.pool, Status: StatusRunning}
	}
}

func (h *Handle) finish(out Outcome) {
	h.outcome = out
	close(h.done)
}
