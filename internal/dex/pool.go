package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/feed"
	"swapscope/internal/model"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Backend is the chain access a Pool needs. *chain.Client implements it.
type Backend interface {
	ContractCaller
	feed.LogSubscriber
	feed.LogFilterer
	SupportsSubscriptions() bool
}

// PoolConfig configures how a Pool streams its swaps.
type PoolConfig struct {
	Poll   feed.PollConfig
	Logger *zap.Logger
}

// Pool is a handle on one V3 pool contract.
type Pool struct {
	address common.Address
	backend Backend
	decoder *SwapDecoder
	cfg     PoolConfig
}

// NewPool binds a pool address to a chain backend.
func NewPool(address common.Address, backend Backend, cfg PoolConfig) (*Pool, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	decoder, err := NewSwapDecoder()
	if err != nil {
		return nil, fmt.Errorf("swap decoder: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{address: address, backend: backend, decoder: decoder, cfg: cfg}, nil
}

// Address returns the pool contract address.
func (p *Pool) Address() common.Address {
	return p.address
}

// Token0 queries the pool's canonical token0.
func (p *Pool) Token0(ctx context.Context) (common.Address, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, p.backend, p.address, poolABI, "token0", nil)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// SubscribeSwaps opens a Swap stream for the pool, pushing over websocket/IPC and polling over HTTP.
func (p *Pool) SubscribeSwaps(ctx context.Context) (feed.Subscription, error) {
	query := feed.Query{
		Addresses: []common.Address{p.address},
		Topic0:    []common.Hash{p.decoder.Topic()},
	}
	if p.backend.SupportsSubscriptions() {
		return feed.Subscribe(ctx, p.backend, query, p.decoder.Decode)
	}
	logger := p.cfg.Logger.With(zap.String("pool", p.address.Hex()))
	return feed.Poll(ctx, p.backend, query, p.decoder.Decode, p.cfg.Poll, logger)
}

// FetchPoolMeta loads immutable pool metadata from chain.
func FetchPoolMeta(ctx context.Context, caller ContractCaller, pool common.Address) (model.Pool, error) {
	if caller == nil {
		return model.Pool{}, fmt.Errorf("chain client is nil")
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return model.Pool{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, caller, pool, poolABI, "token0", nil)
	if err != nil {
		return model.Pool{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "token1", nil)
	if err != nil {
		return model.Pool{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "fee", nil)
	if err != nil {
		return model.Pool{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("fee: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "tickSpacing", nil)
	if err != nil {
		return model.Pool{}, err
	}
	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}

	return model.Pool{
		Address:     pool.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Fee:         uint32(feeInt.Uint64()),
		TickSpacing: tickSpacing,
	}, nil
}

// Slot0 is the subset of slot0 the CLI reports.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
}

// FetchSlot0 loads the pool's current sqrt price and tick.
func FetchSlot0(ctx context.Context, caller ContractCaller, pool common.Address) (Slot0, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return Slot0{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, caller, pool, poolABI, "slot0", nil)
	if err != nil {
		return Slot0{}, err
	}
	if len(values) < 2 {
		return Slot0{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return Slot0{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return Slot0{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return Slot0{}, fmt.Errorf("slot0 tick: %w", err)
	}
	return Slot0{SqrtPriceX96: sqrt, Tick: tick}, nil
}

func callMethod(ctx context.Context, caller ContractCaller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
