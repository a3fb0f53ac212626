package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapEvent is one decoded pool Swap log.
type SwapEvent struct {
	Pool         common.Address
	Sender       common.Address
	Recipient    common.Address
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
	BlockNumber  uint64
	TxHash       common.Hash
	LogIndex     uint
}
