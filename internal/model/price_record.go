package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is emitted once per converted swap.
// Big integers are kept as decimal strings to survive JSON consumers.
type PriceRecord struct {
	Pool         string          `json:"pool"`
	Base         string          `json:"base"`
	Quote        string          `json:"quote"`
	BlockNumber  uint64          `json:"block_number"`
	TxHash       string          `json:"tx_hash"`
	LogIndex     uint            `json:"log_index"`
	Sender       string          `json:"sender"`
	Recipient    string          `json:"recipient"`
	Amount0      string          `json:"amount0"`
	Amount1      string          `json:"amount1"`
	BaseAmount   string          `json:"base_amount,omitempty"`
	QuoteAmount  string          `json:"quote_amount,omitempty"`
	Liquidity    string          `json:"liquidity"`
	Tick         int32           `json:"tick"`
	SqrtPriceX96 string          `json:"sqrt_price_x96"`
	Price        decimal.Decimal `json:"price"`
	ObservedAt   time.Time       `json:"observed_at"`
}

// NewPriceRecord builds a record from a swap and its converted price.
func NewPriceRecord(pair TokenPair, event SwapEvent, price decimal.Decimal, observedAt time.Time) PriceRecord {
	return PriceRecord{
		Pool:         event.Pool.Hex(),
		Base:         pair.Base.Label(),
		Quote:        pair.Quote.Label(),
		BlockNumber:  event.BlockNumber,
		TxHash:       event.TxHash.Hex(),
		LogIndex:     event.LogIndex,
		Sender:       event.Sender.Hex(),
		Recipient:    event.Recipient.Hex(),
		Amount0:      bigString(event.Amount0),
		Amount1:      bigString(event.Amount1),
		Liquidity:    bigString(event.Liquidity),
		Tick:         event.Tick,
		SqrtPriceX96: bigString(event.SqrtPriceX96),
		Price:        price,
		ObservedAt:   observedAt.UTC(),
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
