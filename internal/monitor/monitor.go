// Package monitor watches Uniswap V3 pools and turns their swaps into price records.
//
// Each pool gets its own watcher goroutine. Watchers share nothing but the token pair
// (copied by value) and the sink, and one watcher failing never stops another.
package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Monitor starts pool watchers.
type Monitor struct {
	cfg Config
}

// New validates cfg and builds a Monitor.
func New(cfg Config) (*Monitor, error) {
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	return &Monitor{cfg: cfg.withDefaults()}, nil
}

// RunSingle watches one pool on the caller's goroutine and returns its outcome.
func (m *Monitor) RunSingle(ctx context.Context, pool Pool) Outcome {
	return m.run(ctx, pool)
}

// RunMany starts one watcher per pool and returns immediately.
func (m *Monitor) RunMany(ctx context.Context, pools []Pool) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cancel:  cancel,
		handles: make([]*Handle, len(pools)),
	}
	for i, pool := range pools {
		h := newHandle(pool.Address())
		s.handles[i] = h
		s.wg.Add(1)
		go func(pool Pool, h *Handle) {
			defer s.wg.Done()
			h.finish(m.run(ctx, pool))
		}(pool, h)
	}
	m.cfg.Logger.Info("monitor started", zap.Int("pools", len(pools)))
	return s
}

func (m *Monitor) run(ctx context.Context, pool Pool) (out Outcome) {
	addr := pool.Address()
	logger := m.cfg.Logger.With(zap.String("pool", addr.Hex()))

	m.cfg.Metrics.WatcherStarted()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("watcher panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out = Outcome{Pool: addr, Status: StatusFailed, Err: fmt.Errorf("watcher panic: %v", r)}
		}
		m.cfg.Metrics.WatcherFinished(out.Status.String())

		switch out.Status {
		case StatusFailed:
			logger.Error("watcher failed", zap.Error(out.Err))
		default:
			logger.Info("watcher finished", zap.Stringer("status", out.Status))
		}
	}()

	err := NewWatcher(pool, m.cfg).Watch(ctx)
	return classify(addr, err)
}

// Session is a running set of watchers started by RunMany.
type Session struct {
	cancel  context.CancelFunc
	handles []*Handle
	wg      sync.WaitGroup
}

// Handles returns one handle per pool, in the order the pools were given.
func (s *Session) Handles() []*Handle {
	return append([]*Handle(nil), s.handles...)
}

// Wait blocks until every watcher has terminated and returns their outcomes in pool order.
func (s *Session) Wait() []Outcome {
	s.wg.Wait()
	s.cancel()
	outcomes := make([]Outcome, len(s.handles))
	for i, h := range s.handles {
		outcomes[i] = h.Outcome()
	}
	return outcomes
}

// Stop cancels every watcher and waits for them to terminate.
func (s *Session) Stop() []Outcome {
	s.cancel()
	return s.Wait()
}
