package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swapscope/internal/chain"
	"swapscope/internal/config"
	"swapscope/internal/dex"
	"swapscope/internal/price"
	"swapscope/internal/tokens"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrice(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	sqrt, err := config.ParseSqrtPrice(cfg.Sqrt)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var caller dex.ContractCaller
	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()
		caller = client
	}
	registry := tokens.NewRegistry(caller, logger)

	pair, err := registry.ResolvePair(ctx, cfg.Base, cfg.Quote)
	if err != nil {
		return err
	}
	token0, err := registry.Resolve(ctx, cfg.Token0)
	if err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	if token0.Address != pair.Base.Address && token0.Address != pair.Quote.Address {
		return fmt.Errorf("%w: token0 %s is neither %s nor %s", config.ErrInvalid, token0.Label(), pair.Base.Label(), pair.Quote.Label())
	}

	ratio, err := price.Price(pair, sqrt, token0.Address)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", price.Decimal(ratio, cfg.Places).StringFixed(cfg.Places), pair.Quote.Label(), pair.Base.Label())
	return nil
}
