package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/model"
)

// FetchToken loads decimals and symbol for an ERC20 token.
// A missing symbol is tolerated; a missing decimals value is not.
func FetchToken(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.Token, error) {
	if caller == nil {
		return model.Token{}, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := erc20ABIInstance()
	if err != nil {
		return model.Token{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, parsed, "decimals", nil)
	if err != nil {
		return model.Token{}, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return model.Token{}, fmt.Errorf("token %s decimals: %w", token.Hex(), err)
	}

	symbol, err := fetchSymbol(ctx, caller, token)
	if err != nil {
		logger.Warn("token symbol unavailable",
			zap.String("token", token.Hex()),
			zap.Error(err),
		)
	}

	return model.Token{Address: token, Decimals: decimals, Symbol: symbol}, nil
}

func fetchSymbol(ctx context.Context, caller ContractCaller, token common.Address) (string, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return "", err
	}
	values, err := callMethod(ctx, caller, token, parsed, "symbol", nil)
	if err == nil {
		if s, ok := values[0].(string); ok {
			return s, nil
		}
	}

	fallback, ferr := erc20Bytes32ABIInstance()
	if ferr != nil {
		return "", ferr
	}
	values, ferr = callMethod(ctx, caller, token, fallback, "symbol", nil)
	if ferr != nil {
		if err != nil {
			return "", err
		}
		return "", ferr
	}
	if s, ok := bytes32ToString(values[0]); ok {
		return s, nil
	}
	return "", fmt.Errorf("unsupported symbol type %T", values[0])
}
