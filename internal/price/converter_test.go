package price

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/model"
)

var (
	addrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	q96   = new(big.Int).Lsh(big.NewInt(1), 96)
)

func pairOf(baseDecimals, quoteDecimals uint8) model.TokenPair {
	return model.TokenPair{
		Base:  model.Token{Address: addrA, Decimals: baseDecimals, Symbol: "AAA"},
		Quote: model.Token{Address: addrB, Decimals: quoteDecimals, Symbol: "BBB"},
	}
}

func sqrtOf(k int64) *big.Int {
	return new(big.Int).Mul(q96, big.NewInt(k))
}

func TestPriceBaseIsToken0EqualDecimals(t *testing.T) {
	sqrt, _ := new(big.Int).SetString("1771595571142957166518320255467520", 10)

	got, err := Price(pairOf(18, 18), sqrt, addrA)
	if err != nil {
		t.Fatalf("price: %v", err)
	}

	want := new(big.Rat).SetFrac(new(big.Int).Mul(sqrt, sqrt), new(big.Int).Lsh(big.NewInt(1), 192))
	if got.Cmp(want) != 0 {
		t.Fatalf("price mismatch: got %s want %s", got.RatString(), want.RatString())
	}

	got, err = Price(pairOf(6, 6), sqrtOf(3), addrA)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if got.Cmp(big.NewRat(9, 1)) != 0 {
		t.Fatalf("expected 9, got %s", got.RatString())
	}
}

func TestPriceInversionSymmetry(t *testing.T) {
	sqrt, _ := new(big.Int).SetString("4295128739123456789012345", 10)

	cases := []struct {
		name       string
		base       uint8
		quote      uint8
		poolToken0 common.Address
	}{
		{name: "token0 is base", base: 18, quote: 6, poolToken0: addrA},
		{name: "token0 is quote", base: 18, quote: 6, poolToken0: addrB},
		{name: "equal decimals", base: 8, quote: 8, poolToken0: addrA},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pair := pairOf(tc.base, tc.quote)
			forward, err := Price(pair, sqrt, tc.poolToken0)
			if err != nil {
				t.Fatalf("forward: %v", err)
			}
			backward, err := Price(pair.Inverse(), sqrt, tc.poolToken0)
			if err != nil {
				t.Fatalf("backward: %v", err)
			}
			product := new(big.Rat).Mul(forward, backward)
			if product.Cmp(big.NewRat(1, 1)) != 0 {
				t.Fatalf("product should be 1, got %s", product.FloatString(30))
			}
		})
	}
}

func TestPriceDecimalScaling(t *testing.T) {
	sqrt := sqrtOf(7)
	factor := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil))

	for _, poolToken0 := range []common.Address{addrA, addrB} {
		flat, err := Price(pairOf(6, 6), sqrt, poolToken0)
		if err != nil {
			t.Fatalf("flat: %v", err)
		}

		scaled, err := Price(pairOf(18, 6), sqrt, poolToken0)
		if err != nil {
			t.Fatalf("scaled: %v", err)
		}
		ratio := new(big.Rat).Quo(scaled, flat)
		if ratio.Cmp(factor) != 0 {
			t.Fatalf("token0=%s: expected ratio 10^12, got %s", poolToken0.Hex(), ratio.RatString())
		}

		reversed, err := Price(pairOf(6, 18), sqrt, poolToken0)
		if err != nil {
			t.Fatalf("reversed: %v", err)
		}
		ratio = new(big.Rat).Quo(reversed, flat)
		if ratio.Cmp(new(big.Rat).Inv(factor)) != 0 {
			t.Fatalf("token0=%s: expected ratio 10^-12, got %s", poolToken0.Hex(), ratio.RatString())
		}
	}
}

func TestPriceWETHUSDCPool(t *testing.T) {
	// token0 = USDC (6), token1 = WETH (18); raw = 25000^2 wei per USDC unit.
	pair := model.TokenPair{
		Base:  model.Token{Address: addrB, Decimals: 18, Symbol: "WETH"},
		Quote: model.Token{Address: addrA, Decimals: 6, Symbol: "USDC"},
	}

	got, err := Price(pair, sqrtOf(25000), addrA)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if got.Cmp(big.NewRat(1600, 1)) != 0 {
		t.Fatalf("expected 1600, got %s", got.FloatString(18))
	}

	inverse, err := Price(pair.Inverse(), sqrtOf(25000), addrA)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if inverse.Cmp(big.NewRat(1, 1600)) != 0 {
		t.Fatalf("expected 1/1600, got %s", inverse.RatString())
	}
}

func TestPriceDegenerateInput(t *testing.T) {
	if _, err := Price(pairOf(18, 6), big.NewInt(0), addrA); !errors.Is(err, ErrZeroSqrtPrice) {
		t.Fatalf("expected ErrZeroSqrtPrice, got %v", err)
	}
	if _, err := Price(pairOf(18, 6), big.NewInt(0), addrB); !errors.Is(err, ErrZeroSqrtPrice) {
		t.Fatalf("expected ErrZeroSqrtPrice for inverted side, got %v", err)
	}
	if _, err := Price(pairOf(18, 6), big.NewInt(-5), addrA); !errors.Is(err, ErrInvalidSqrtPrice) {
		t.Fatalf("expected ErrInvalidSqrtPrice, got %v", err)
	}
	if _, err := Price(pairOf(18, 6), nil, addrA); !errors.Is(err, ErrInvalidSqrtPrice) {
		t.Fatalf("expected ErrInvalidSqrtPrice for nil, got %v", err)
	}
}

func TestPriceDoesNotMutateInput(t *testing.T) {
	sqrt := sqrtOf(11)
	before := new(big.Int).Set(sqrt)
	if _, err := Price(pairOf(18, 6), sqrt, addrB); err != nil {
		t.Fatalf("price: %v", err)
	}
	if sqrt.Cmp(before) != 0 {
		t.Fatalf("input mutated: %s != %s", sqrt, before)
	}
}

func TestDecimal(t *testing.T) {
	if got := Decimal(big.NewRat(1, 3), 4).String(); got != "0.3333" {
		t.Fatalf("1/3 -> %s", got)
	}
	if got := Decimal(big.NewRat(2, 3), 4).String(); got != "0.6667" {
		t.Fatalf("2/3 -> %s", got)
	}
	if got := Decimal(big.NewRat(1600, 1), 18).String(); got != "1600" {
		t.Fatalf("1600 -> %s", got)
	}
	if !Decimal(nil, 4).IsZero() {
		t.Fatalf("nil should be zero")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(big.NewInt(-1500000), 6); got != "-1.500000" {
		t.Fatalf("got %s", got)
	}
	if got := FormatAmount(big.NewInt(42), 0); got != "42" {
		t.Fatalf("got %s", got)
	}
	if got := FormatAmount(nil, 18); got != "0" {
		t.Fatalf("got %s", got)
	}
}
