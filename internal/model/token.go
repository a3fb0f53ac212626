package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies an ERC20 asset and its decimal scale.
type Token struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

// TokenPair is the (base, quote) pair a price is quoted for.
// Order reflects display intent, not the pool's token0/token1 ordering.
// Watchers receive it by value and never modify it.
type TokenPair struct {
	Base  Token `json:"base"`
	Quote Token `json:"quote"`
}

// NewTokenPair validates and builds a TokenPair.
func NewTokenPair(base, quote Token) (TokenPair, error) {
	if base.Address == (common.Address{}) || quote.Address == (common.Address{}) {
		return TokenPair{}, fmt.Errorf("token address is required")
	}
	if base.Address == quote.Address {
		return TokenPair{}, fmt.Errorf("base and quote are the same token: %s", base.Address.Hex())
	}
	return TokenPair{Base: base, Quote: quote}, nil
}

// Inverse returns the pair with base and quote swapped.
func (p TokenPair) Inverse() TokenPair {
	return TokenPair{Base: p.Quote, Quote: p.Base}
}

// String renders the pair as BASE/QUOTE.
func (p TokenPair) String() string {
	return p.Base.Label() + "/" + p.Quote.Label()
}

// Label returns the symbol, or the address when the symbol is unknown.
func (t Token) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}
