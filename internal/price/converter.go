// Package price converts Uniswap V3 Q64.96 square-root prices into decimal prices.
package price

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swapscope/internal/model"
)

var (
	ErrZeroSqrtPrice    = errors.New("sqrt price is zero")
	ErrInvalidSqrtPrice = errors.New("sqrt price is negative or missing")
)

// q192 is 2^192, the scale of sqrtPriceX96 squared.
var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// Price returns the price of pair.Base denominated in pair.Quote (quote per base),
// in whole-token units: 1600 for WETH/USDC means 1600 USDC buys one WETH.
//
// The pool's native price is token1 per token0 in raw units: sqrtPriceX96^2 / 2^192.
// When the base is the pool's token0 the raw price is scaled by 10^(baseDecimals-quoteDecimals);
// otherwise it is inverted and scaled the other way. The result is exact.
func Price(pair model.TokenPair, sqrtPriceX96 *big.Int, poolToken0 common.Address) (*big.Rat, error) {
	raw, err := Raw(sqrtPriceX96)
	if err != nil {
		return nil, err
	}

	diff := int(pair.Base.Decimals) - int(pair.Quote.Decimals)

	if poolToken0 == pair.Base.Address {
		return raw.Mul(raw, pow10(diff)), nil
	}
	raw.Quo(raw, pow10(diff))
	return raw.Inv(raw), nil
}

// Raw returns sqrtPriceX96^2 / 2^192 with no decimal adjustment.
func Raw(sqrtPriceX96 *big.Int) (*big.Rat, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() < 0 {
		return nil, ErrInvalidSqrtPrice
	}
	if sqrtPriceX96.Sign() == 0 {
		return nil, ErrZeroSqrtPrice
	}
	sq := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	return new(big.Rat).SetFrac(sq, q192), nil
}

// Decimal rounds an exact ratio half-up to places fractional digits.
func Decimal(r *big.Rat, places int32) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, places)
}

// pow10 returns 10^exp as a ratio; exp may be negative.
func pow10(exp int) *big.Rat {
	abs := exp
	if abs < 0 {
		abs = -abs
	}
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs)), nil)
	if exp < 0 {
		return new(big.Rat).SetFrac(big.NewInt(1), p)
	}
	return new(big.Rat).SetInt(p)
}
