package tokens

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

type erc20Caller struct {
	abi      abi.ABI
	decimals uint8
	symbol   string
	calls    int
}

func newERC20Caller(t *testing.T, decimals uint8, symbol string) *erc20Caller {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(erc20JSON))
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	return &erc20Caller{abi: parsed, decimals: decimals, symbol: symbol}
}

func (c *erc20Caller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.calls++
	method, err := c.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name == "decimals" {
		return method.Outputs.Pack(c.decimals)
	}
	return method.Outputs.Pack(c.symbol)
}

func TestResolveBuiltinSymbols(t *testing.T) {
	r := NewRegistry(nil, nil)
	cases := map[string]uint8{"usdc": 6, "WETH": 18, "eth": 18, "WBTC": 8, "dai": 18}
	for ref, decimals := range cases {
		token, err := r.Resolve(context.Background(), ref)
		if err != nil {
			t.Fatalf("resolve %s: %v", ref, err)
		}
		if token.Decimals != decimals {
			t.Fatalf("%s decimals: got %d want %d", ref, token.Decimals, decimals)
		}
	}

	eth, _ := r.Resolve(context.Background(), "ETH")
	weth, _ := r.Resolve(context.Background(), "WETH")
	if eth.Address != weth.Address {
		t.Fatalf("ETH should alias WETH")
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	r := NewRegistry(nil, nil)
	_, err := r.Resolve(context.Background(), "NOPE")
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if !strings.Contains(err.Error(), "USDC") || !strings.Contains(err.Error(), "WETH") {
		t.Fatalf("error should list known symbols: %v", err)
	}
	if _, err := r.Resolve(context.Background(), " "); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken for empty ref, got %v", err)
	}
}

func TestResolveKnownAddressWithoutRPC(t *testing.T) {
	r := NewRegistry(nil, nil)
	token, err := r.Resolve(context.Background(), "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if token.Symbol != "USDC" {
		t.Fatalf("unexpected token: %+v", token)
	}
}

func TestResolveAddressOnChainIsCached(t *testing.T) {
	caller := newERC20Caller(t, 18, "PEPE")
	r := NewRegistry(caller, nil)
	addr := "0x6982508145454Ce325dDbE47a25d4ec3d2311933"

	for i := 0; i < 2; i++ {
		token, err := r.Resolve(context.Background(), addr)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if token.Symbol != "PEPE" || token.Decimals != 18 || token.Address != common.HexToAddress(addr) {
			t.Fatalf("unexpected token: %+v", token)
		}
	}
	if caller.calls != 2 {
		t.Fatalf("expected one decimals and one symbol call, got %d", caller.calls)
	}
}

func TestResolvePairRejectsSameToken(t *testing.T) {
	r := NewRegistry(nil, nil)
	if _, err := r.ResolvePair(context.Background(), "ETH", "WETH"); err == nil {
		t.Fatalf("expected error for identical tokens")
	}
	pair, err := r.ResolvePair(context.Background(), "WETH", "USDC")
	if err != nil {
		t.Fatalf("resolve pair: %v", err)
	}
	if pair.String() != "WETH/USDC" {
		t.Fatalf("pair: %s", pair)
	}
}
