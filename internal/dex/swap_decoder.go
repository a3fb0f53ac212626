package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapscope/internal/model"
)

// SwapDecoder decodes Uniswap V3 / PancakeSwap V3 pool Swap logs.
type SwapDecoder struct {
	event abi.Event
}

// NewSwapDecoder builds a Swap log decoder.
func NewSwapDecoder() (*SwapDecoder, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	event, ok := poolABI.Events["Swap"]
	if !ok {
		return nil, fmt.Errorf("swap event missing from pool abi")
	}
	return &SwapDecoder{event: event}, nil
}

// Topic returns the Swap event topic0.
func (d *SwapDecoder) Topic() common.Hash {
	return d.event.ID
}

// Decode converts a Swap log into a SwapEvent.
func (d *SwapDecoder) Decode(log types.Log) (model.SwapEvent, error) {
	if len(log.Topics) == 0 {
		return model.SwapEvent{}, fmt.Errorf("missing topics")
	}
	if log.Topics[0] != d.event.ID {
		return model.SwapEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	indexedArgs := indexedArguments(d.event.Inputs)
	if len(log.Topics) != len(indexedArgs)+1 {
		return model.SwapEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, log.Topics[1:]); err != nil {
		return model.SwapEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := d.event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.SwapEvent{}, fmt.Errorf("unpack swap: %w", err)
	}
	if len(values) != 5 {
		return model.SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	ints := make([]*big.Int, len(values))
	for i, value := range values {
		ints[i], err = asBigInt(value)
		if err != nil {
			return model.SwapEvent{}, err
		}
	}
	tick, err := int24FromBig(ints[4])
	if err != nil {
		return model.SwapEvent{}, err
	}

	return model.SwapEvent{
		Pool:         log.Address,
		Sender:       indexed.Sender,
		Recipient:    indexed.Recipient,
		Amount0:      ints[0],
		Amount1:      ints[1],
		SqrtPriceX96: ints[2],
		Liquidity:    ints[3],
		Tick:         tick,
		BlockNumber:  log.BlockNumber,
		TxHash:       log.TxHash,
		LogIndex:     log.Index,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
