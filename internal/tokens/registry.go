// Package tokens resolves CLI token references to tokens with known decimals.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/dex"
	"swapscope/internal/model"
)

var ErrUnknownToken = errors.New("unknown token")

// Ethereum mainnet tokens addressable by symbol. ETH maps to WETH since V3 pools hold the wrapped token.
var builtin = []model.Token{
	{Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18, Symbol: "WETH"},
	{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6, Symbol: "USDC"},
	{Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6, Symbol: "USDT"},
	{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18, Symbol: "DAI"},
	{Address: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8, Symbol: "WBTC"},
	{Address: common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"), Decimals: 18, Symbol: "UNI"},
	{Address: common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"), Decimals: 18, Symbol: "LINK"},
}

var aliases = map[string]string{
	"ETH": "WETH",
	"BTC": "WBTC",
}

// Registry resolves symbols from the built-in table and addresses through ERC20 calls.
type Registry struct {
	caller dex.ContractCaller
	logger *zap.Logger

	bySymbol map[string]model.Token

	mu        sync.Mutex
	byAddress map[common.Address]model.Token
}

// NewRegistry builds a registry. caller may be nil, in which case only known tokens resolve.
func NewRegistry(caller dex.ContractCaller, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		caller:    caller,
		logger:    logger,
		bySymbol:  make(map[string]model.Token, len(builtin)+len(aliases)),
		byAddress: make(map[common.Address]model.Token, len(builtin)),
	}
	for _, token := range builtin {
		r.bySymbol[token.Symbol] = token
		r.byAddress[token.Address] = token
	}
	for alias, symbol := range aliases {
		r.bySymbol[alias] = r.bySymbol[symbol]
	}
	return r
}

// Symbols lists the symbols the registry knows without a chain call.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.bySymbol))
	for symbol := range r.bySymbol {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Resolve accepts a symbol (case-insensitive) or a hex address.
func (r *Registry) Resolve(ctx context.Context, ref string) (model.Token, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Token{}, fmt.Errorf("%w: empty reference", ErrUnknownToken)
	}

	if common.IsHexAddress(ref) {
		return r.resolveAddress(ctx, common.HexToAddress(ref))
	}

	token, ok := r.bySymbol[strings.ToUpper(ref)]
	if !ok {
		return model.Token{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownToken, ref, strings.Join(r.Symbols(), ", "))
	}
	return token, nil
}

func (r *Registry) resolveAddress(ctx context.Context, addr common.Address) (model.Token, error) {
	r.mu.Lock()
	token, ok := r.byAddress[addr]
	r.mu.Unlock()
	if ok {
		return token, nil
	}

	if r.caller == nil {
		return model.Token{}, fmt.Errorf("%w: %s (no rpc to query)", ErrUnknownToken, addr.Hex())
	}
	token, err := dex.FetchToken(ctx, r.caller, addr, r.logger)
	if err != nil {
		return model.Token{}, fmt.Errorf("resolve token %s: %w", addr.Hex(), err)
	}

	r.mu.Lock()
	r.byAddress[addr] = token
	r.mu.Unlock()

	r.logger.Debug("token resolved on chain",
		zap.String("address", addr.Hex()),
		zap.String("symbol", token.Symbol),
		zap.Uint8("decimals", token.Decimals),
	)
	return token, nil
}

// ResolvePair resolves both sides of a pair.
func (r *Registry) ResolvePair(ctx context.Context, base, quote string) (model.TokenPair, error) {
	b, err := r.Resolve(ctx, base)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("base: %w", err)
	}
	q, err := r.Resolve(ctx, quote)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("quote: %w", err)
	}
	return model.NewTokenPair(b, q)
}
