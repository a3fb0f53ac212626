package config

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddresses converts hex strings into addresses, rejecting malformed or duplicate entries.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	seen := make(map[common.Address]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, invalid("address %q", input)
		}
		addr := common.HexToAddress(input)
		if _, dup := seen[addr]; dup {
			return nil, invalid("duplicate address %s", addr.Hex())
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ParseSqrtPrice parses a decimal or 0x-prefixed sqrtPriceX96 value.
func ParseSqrtPrice(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, invalid("sqrt price is required")
	}
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		v, err := hexutil.DecodeBig(input)
		if err != nil {
			return nil, invalid("sqrt price %q: %v", input, err)
		}
		return v, nil
	}
	v, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, invalid("sqrt price %q is not an integer", input)
	}
	return v, nil
}
