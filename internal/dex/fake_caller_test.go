package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type fakeCaller struct {
	abi     abi.ABI
	respond func(to common.Address, method string, args []interface{}) ([]interface{}, error)
	raw     map[string][]byte

	mu    sync.Mutex
	calls []string
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("short calldata")
	}
	method, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, method.Name)
	f.mu.Unlock()

	if data, ok := f.raw[method.Name]; ok {
		return data, nil
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := f.respond(*msg.To, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
