package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/model"
)

// DefaultFactoryAddress is the Uniswap V3 factory on Ethereum mainnet.
const DefaultFactoryAddress = "0x1F98431c8aD98523631AE4a59f267346ea31F984"

var (
	ErrUnknownFeeTier = errors.New("unknown fee tier")
	ErrNoPools        = errors.New("no pool deployed for pair")
)

// FeeTier is a pool fee in hundredths of a basis point.
type FeeTier uint32

const (
	FeeTier1   FeeTier = 100
	FeeTier5   FeeTier = 500
	FeeTier30  FeeTier = 3000
	FeeTier100 FeeTier = 10000
)

// AllFeeTiers lists the standard tiers in ascending order.
var AllFeeTiers = []FeeTier{FeeTier1, FeeTier5, FeeTier30, FeeTier100}

// String renders the tier in basis points, e.g. "30bp".
func (f FeeTier) String() string {
	return fmt.Sprintf("%dbp", uint32(f)/100)
}

// ParseFeeTier maps a basis-point selector ("1", "5", "30", "100") to its tier.
// An empty selector selects every tier.
func ParseFeeTier(selector string) ([]FeeTier, error) {
	switch strings.TrimSpace(selector) {
	case "":
		return append([]FeeTier(nil), AllFeeTiers...), nil
	case "1":
		return []FeeTier{FeeTier1}, nil
	case "5":
		return []FeeTier{FeeTier5}, nil
	case "30":
		return []FeeTier{FeeTier30}, nil
	case "100":
		return []FeeTier{FeeTier100}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeeTier, selector)
	}
}

// ResolvedPool is a factory lookup result.
type ResolvedPool struct {
	Address common.Address
	Fee     FeeTier
}

// Factory queries a V3 factory contract for pool addresses.
type Factory struct {
	address common.Address
	caller  ContractCaller
	logger  *zap.Logger
}

// NewFactory binds a factory address to a contract caller.
func NewFactory(address common.Address, caller ContractCaller, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{address: address, caller: caller, logger: logger}
}

// GetPool returns the pool for (tokenA, tokenB, fee), or the zero address if none is deployed.
func (f *Factory) GetPool(ctx context.Context, tokenA, tokenB common.Address, fee FeeTier) (common.Address, error) {
	parsed, err := V3FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, f.caller, f.address, parsed, "getPool", nil,
		tokenA, tokenB, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// ResolvePools looks up the pool for each tier, skipping tiers with no deployment.
func (f *Factory) ResolvePools(ctx context.Context, pair model.TokenPair, tiers []FeeTier) ([]ResolvedPool, error) {
	pools := make([]ResolvedPool, 0, len(tiers))
	for _, tier := range tiers {
		addr, err := f.GetPool(ctx, pair.Base.Address, pair.Quote.Address, tier)
		if err != nil {
			return nil, fmt.Errorf("get pool %s %s: %w", pair, tier, err)
		}
		if addr == (common.Address{}) {
			f.logger.Debug("no pool for fee tier",
				zap.String("pair", pair.String()),
				zap.String("fee", tier.String()),
			)
			continue
		}
		pools = append(pools, ResolvedPool{Address: addr, Fee: tier})
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPools, pair)
	}
	return pools, nil
}

// ResolvePoolAddresses validates the fee selector before any chain call, then resolves pool addresses.
func (f *Factory) ResolvePoolAddresses(ctx context.Context, pair model.TokenPair, feeSelector string) ([]common.Address, error) {
	tiers, err := ParseFeeTier(feeSelector)
	if err != nil {
		return nil, err
	}
	pools, err := f.ResolvePools(ctx, pair, tiers)
	if err != nil {
		return nil, err
	}
	addrs := make([]common.Address, len(pools))
	for i, p := range pools {
		addrs[i] = p.Address
	}
	return addrs, nil
}
