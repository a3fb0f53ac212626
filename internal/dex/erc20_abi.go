package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Most tokens return symbol as string; a few early ones (MKR, SAI) return bytes32.
const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20Bytes32SymbolABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error

	erc20Bytes32ABI     abi.ABI
	erc20Bytes32ABIOnce sync.Once
	erc20Bytes32ABIErr  error
)

func erc20ABIInstance() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

func erc20Bytes32ABIInstance() (abi.ABI, error) {
	erc20Bytes32ABIOnce.Do(func() {
		erc20Bytes32ABI, erc20Bytes32ABIErr = abi.JSON(strings.NewReader(erc20Bytes32SymbolABIJSON))
	})
	return erc20Bytes32ABI, erc20Bytes32ABIErr
}
