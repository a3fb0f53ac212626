package dex

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Bounds of a Solidity int24 (ticks, tick spacing).
var (
	minInt24 = big.NewInt(-1 << 23)
	maxInt24 = big.NewInt(1<<23 - 1)
)

// The abi package unpacks address as common.Address, uint8 natively, and every
// other integer width the pool ABI uses (uint24, int24, uint128, uint160, int256)
// as *big.Int, so those are the only shapes accepted here.

func asAddress(value any) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("expected address, got %T", value)
	}
	return addr, nil
}

func asBigInt(value any) (*big.Int, error) {
	n, ok := value.(*big.Int)
	if !ok || n == nil {
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
	return new(big.Int).Set(n), nil
}

func asUint8(value any) (uint8, error) {
	n, ok := value.(uint8)
	if !ok {
		return 0, fmt.Errorf("expected uint8, got %T", value)
	}
	return n, nil
}

func int24FromBig(value *big.Int) (int32, error) {
	if value.Cmp(minInt24) < 0 || value.Cmp(maxInt24) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value)
	}
	return int32(value.Int64()), nil
}

// bytes32ToString decodes the legacy bytes32 symbol some tokens (MKR, SAI) return.
func bytes32ToString(value any) (string, bool) {
	raw, ok := value.([32]byte)
	if !ok {
		return "", false
	}
	return string(bytes.TrimRight(raw[:], "\x00")), true
}
