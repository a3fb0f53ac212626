package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const v3PoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "int256", "name": "amount0", "type": "int256"},
      {"indexed": false, "internalType": "int256", "name": "amount1", "type": "int256"},
      {"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "inputs": [],
    "name": "token0",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "token1",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "fee",
    "outputs": [{"internalType": "uint24", "name": "", "type": "uint24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "tickSpacing",
    "outputs": [{"internalType": "int24", "name": "", "type": "int24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "liquidity",
    "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "slot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
      {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
      {"internalType": "bool", "name": "unlocked", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const v3FactoryABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "tokenA", "type": "address"},
      {"internalType": "address", "name": "tokenB", "type": "address"},
      {"internalType": "uint24", "name": "fee", "type": "uint24"}
    ],
    "name": "getPool",
    "outputs": [{"internalType": "address", "name": "pool", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	v3PoolABI     abi.ABI
	v3PoolABIOnce sync.Once
	v3PoolABIErr  error

	v3FactoryABI     abi.ABI
	v3FactoryABIOnce sync.Once
	v3FactoryABIErr  error
)

// V3PoolABI returns the parsed V3 pool ABI.
func V3PoolABI() (abi.ABI, error) {
	v3PoolABIOnce.Do(func() {
		v3PoolABI, v3PoolABIErr = abi.JSON(strings.NewReader(v3PoolABIJSON))
	})
	return v3PoolABI, v3PoolABIErr
}

// V3FactoryABI returns the parsed V3 factory ABI.
func V3FactoryABI() (abi.ABI, error) {
	v3FactoryABIOnce.Do(func() {
		v3FactoryABI, v3FactoryABIErr = abi.JSON(strings.NewReader(v3FactoryABIJSON))
	})
	return v3FactoryABI, v3FactoryABIErr
}

// SwapTopic returns the topic0 of the V3 Swap event.
func SwapTopic() (common.Hash, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return common.Hash{}, err
	}
	return poolABI.Events["Swap"].ID, nil
}
