// Package feed turns chain log streams into ordered swap deliveries.
//
// A Subscription reports per-item problems inline as a Delivery with Err set and
// fatal stream termination on Err(). Deliveries() is closed when the stream ends,
// whether normally, fatally, or through Unsubscribe.
package feed

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapscope/internal/model"
)

var ErrRemovedLog = errors.New("log removed by chain reorganisation")

// Delivery is one item of a swap stream: either a decoded event or a per-item error.
type Delivery struct {
	Event model.SwapEvent
	Err   error
}

// Subscription is a lazy, in-order, potentially infinite stream of swaps.
type Subscription interface {
	Deliveries() <-chan Delivery
	Err() <-chan error
	Unsubscribe()
}

// DecodeFunc converts a raw log into a swap event.
type DecodeFunc func(types.Log) (model.SwapEvent, error)

// Query selects the logs a subscription follows.
type Query struct {
	Addresses []common.Address
	Topic0    []common.Hash
}

type stream struct {
	deliveries chan Delivery
	errc       chan error
	quit       chan struct{}
	once       sync.Once
	onStop     func()
}

func newStream(onStop func()) *stream {
	return &stream{
		deliveries: make(chan Delivery),
		errc:       make(chan error, 1),
		quit:       make(chan struct{}),
		onStop:     onStop,
	}
}

func (s *stream) Deliveries() <-chan Delivery { return s.deliveries }

func (s *stream) Err() <-chan error { return s.errc }

func (s *stream) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		if s.onStop != nil {
			s.onStop()
		}
	})
}

// deliver blocks until the consumer takes d or the stream is stopped.
func (s *stream) deliver(d Delivery) bool {
	select {
	case s.deliveries <- d:
		return true
	case <-s.quit:
		return false
	}
}

func (s *stream) fail(err error) {
	select {
	case s.errc <- err:
	default:
	}
}

func decodeDelivery(log types.Log, decode DecodeFunc) Delivery {
	if log.Removed {
		return Delivery{Err: ErrRemovedLog}
	}
	event, err := decode(log)
	if err != nil {
		return Delivery{Err: err}
	}
	return Delivery{Event: event}
}
