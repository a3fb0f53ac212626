package monitor

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/feed"
	"swapscope/internal/model"
)

var (
	baseToken  = model.Token{Address: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), Decimals: 18, Symbol: "AAA"}
	quoteToken = model.Token{Address: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), Decimals: 18, Symbol: "BBB"}
)

func q96(k int64) *big.Int {
	return new(big.Int).Lsh(big.NewInt(k), 96)
}

func swapAt(pool common.Address, block uint64, sqrt *big.Int) model.SwapEvent {
	return model.SwapEvent{
		Pool:         pool,
		Amount0:      big.NewInt(1),
		Amount1:      big.NewInt(-1),
		SqrtPriceX96: sqrt,
		Liquidity:    big.NewInt(1000),
		BlockNumber:  block,
	}
}

// fakeSub replays a fixed list of deliveries, then optionally fails or idles until unsubscribed.
type fakeSub struct {
	deliveries chan feed.Delivery
	errc       chan error
	quit       chan struct{}
	once       sync.Once
}

func newFakeSub(items []feed.Delivery, fatal error, silent bool) *fakeSub {
	s := &fakeSub{
		deliveries: make(chan feed.Delivery),
		errc:       make(chan error, 1),
		quit:       make(chan struct{}),
	}
	go func() {
		defer close(s.deliveries)
		for _, d := range items {
			select {
			case s.deliveries <- d:
			case <-s.quit:
				return
			}
		}
		if fatal != nil {
			s.errc <- fatal
			return
		}
		if silent {
			<-s.quit
		}
	}()
	return s
}

func (s *fakeSub) Deliveries() <-chan feed.Delivery { return s.deliveries }
func (s *fakeSub) Err() <-chan error                 { return s.errc }
func (s *fakeSub) Unsubscribe()                      { s.once.Do(func() { close(s.quit) }) }

func (s *fakeSub) unsubscribed() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

type fakePool struct {
	addr         common.Address
	token0       common.Address
	token0Err    error
	subscribeErr error
	items        []feed.Delivery
	fatal        error
	silent       bool

	mu          sync.Mutex
	token0Calls int
	sub         *fakeSub
}

func (p *fakePool) Address() common.Address { return p.addr }

func (p *fakePool) Token0(context.Context) (common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token0Calls++
	if p.token0Err != nil {
		return common.Address{}, p.token0Err
	}
	return p.token0, nil
}

func (p *fakePool) SubscribeSwaps(context.Context) (feed.Subscription, error) {
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	sub := newFakeSub(p.items, p.fatal, p.silent)
	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()
	return sub, nil
}

func (p *fakePool) subscription() *fakeSub {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub
}

type recordingSink struct {
	mu      sync.Mutex
	records []model.PriceRecord
	onEmit  func(model.PriceRecord) error
}

func (s *recordingSink) Emit(_ context.Context, r model.PriceRecord) error {
	if s.onEmit != nil {
		if err := s.onEmit(r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *recordingSink) forPool(pool common.Address) []model.PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PriceRecord
	for _, r := range s.records {
		if r.Pool == pool.Hex() {
			out = append(out, r)
		}
	}
	return out
}
