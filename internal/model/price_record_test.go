package model

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TestPriceRecordJSONStringFields(t *testing.T) {
	pair := TokenPair{
		Base:  Token{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Decimals: 18, Symbol: "WETH"},
		Quote: Token{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Decimals: 6, Symbol: "USDC"},
	}
	amount0, _ := new(big.Int).SetString("12345678901234567890", 10)
	sqrt, _ := new(big.Int).SetString("79228162514264337593543950336", 10)
	event := SwapEvent{
		Pool:         common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Amount0:      amount0,
		Amount1:      big.NewInt(-42),
		SqrtPriceX96: sqrt,
		Liquidity:    big.NewInt(5000),
		Tick:         10,
		BlockNumber:  100,
	}

	record := NewPriceRecord(pair, event, decimal.RequireFromString("1843.25"), time.Unix(1700000000, 0))

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"amount0", "amount1", "sqrt_price_x96", "liquidity", "price"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string, got %T", key, decoded[key])
		}
	}
	if decoded["amount0"] != "12345678901234567890" || decoded["amount1"] != "-42" {
		t.Fatalf("amounts mismatch: %v %v", decoded["amount0"], decoded["amount1"])
	}
	if decoded["price"] != "1843.25" {
		t.Fatalf("price mismatch: %v", decoded["price"])
	}
	if decoded["base"] != "WETH" || decoded["quote"] != "USDC" {
		t.Fatalf("pair labels mismatch: %v/%v", decoded["base"], decoded["quote"])
	}
}

func TestPriceRecordNilAmounts(t *testing.T) {
	record := NewPriceRecord(TokenPair{}, SwapEvent{}, decimal.Zero, time.Now())
	if record.Amount0 != "0" || record.Liquidity != "0" || record.SqrtPriceX96 != "0" {
		t.Fatalf("nil big ints should render as 0: %+v", record)
	}
}

func TestNewTokenPair(t *testing.T) {
	a := Token{Address: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), Decimals: 18, Symbol: "AAA"}
	b := Token{Address: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), Decimals: 6}

	pair, err := NewTokenPair(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.String() != "AAA/"+b.Address.Hex() {
		t.Fatalf("label mismatch: %s", pair.String())
	}
	if inv := pair.Inverse(); inv.Base != b || inv.Quote != a {
		t.Fatalf("inverse mismatch: %+v", inv)
	}

	if _, err := NewTokenPair(a, a); err == nil {
		t.Fatalf("expected error for identical tokens")
	}
	if _, err := NewTokenPair(a, Token{}); err == nil {
		t.Fatalf("expected error for missing address")
	}
}
