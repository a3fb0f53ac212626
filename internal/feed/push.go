package feed

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogSubscriber opens push log subscriptions.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, addresses []common.Address, topic0 []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error)
}

type pushSubscription struct {
	*stream
	sub  ethereum.Subscription
	logs chan types.Log
}

// Subscribe follows matching logs over an eth_subscribe capable transport.
func Subscribe(ctx context.Context, source LogSubscriber, query Query, decode DecodeFunc) (Subscription, error) {
	logs := make(chan types.Log, 128)
	sub, err := source.SubscribeFilterLogs(ctx, query.Addresses, query.Topic0, logs)
	if err != nil {
		return nil, err
	}

	s := &pushSubscription{
		stream: newStream(sub.Unsubscribe),
		sub:    sub,
		logs:   logs,
	}
	go s.loop(decode)
	return s, nil
}

func (s *pushSubscription) loop(decode DecodeFunc) {
	defer close(s.deliveries)

	for {
		select {
		case <-s.quit:
			return
		case err, ok := <-s.sub.Err():
			if ok && err != nil {
				s.fail(err)
			}
			return
		case log := <-s.logs:
			if !s.deliver(decodeDelivery(log, decode)) {
				return
			}
		}
	}
}
