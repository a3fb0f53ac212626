package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapscope/internal/chain"
	"swapscope/internal/config"
	"swapscope/internal/dex"
	"swapscope/internal/model"
	"swapscope/internal/price"
	"swapscope/internal/storage/postgres"
	"swapscope/internal/tokens"
)

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPools(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	if cfg.List {
		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		return listRegistered(ctx, cmd.OutOrStdout(), store, chainID.Uint64())
	}

	tiers, err := dex.ParseFeeTier(cfg.Fee)
	if err != nil {
		return err
	}

	pair, err := tokens.NewRegistry(chainClient, logger).ResolvePair(ctx, cfg.Base, cfg.Quote)
	if err != nil {
		return err
	}

	factory := dex.NewFactory(common.HexToAddress(cfg.Factory), chainClient, logger)
	resolved, err := factory.ResolvePools(ctx, pair, tiers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if !cfg.Meta && cfg.PGDSN == "" {
		fmt.Fprintln(w, "FEE\tPOOL")
		for _, p := range resolved {
			fmt.Fprintf(w, "%s\t%s\n", p.Fee, p.Address.Hex())
		}
		return w.Flush()
	}

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	records := make([]model.Pool, 0, len(resolved))
	fmt.Fprintf(w, "FEE\tPOOL\tTOKEN0\tTOKEN1\tTICK SPACING\tTICK\tPRICE (%s)\n", pair)
	for _, p := range resolved {
		meta, err := dex.FetchPoolMeta(ctx, chainClient, p.Address)
		if err != nil {
			return fmt.Errorf("pool %s: %w", p.Address.Hex(), err)
		}
		meta.ChainID = chainID.Uint64()
		records = append(records, meta)

		slot, err := dex.FetchSlot0(ctx, chainClient, p.Address)
		if err != nil {
			return fmt.Errorf("pool %s: %w", p.Address.Hex(), err)
		}
		current := "-"
		if ratio, err := price.Price(pair, slot.SqrtPriceX96, common.HexToAddress(meta.Token0)); err == nil {
			current = price.Decimal(ratio, 6).String()
		} else {
			logger.Warn("current price unavailable", zap.String("pool", p.Address.Hex()), zap.Error(err))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			p.Fee, meta.Address, meta.Token0, meta.Token1, meta.TickSpacing, slot.Tick, current)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.PGDSN == "" {
		return nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.UpsertPools(ctx, records); err != nil {
		return err
	}
	logger.Info("pools registered",
		zap.Int("count", len(records)),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	return nil
}

type poolLister interface {
	ListPools(ctx context.Context, chainID uint64) ([]model.Pool, error)
}

// listRegistered prints the registry's pools for one chain.
func listRegistered(ctx context.Context, out io.Writer, store poolLister, chainID uint64) error {
	pools, err := store.ListPools(ctx, chainID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FEE\tPOOL\tTOKEN0\tTOKEN1\tTICK SPACING")
	for _, p := range pools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			dex.FeeTier(p.Fee), p.Address, p.Token0, p.Token1, p.TickSpacing)
	}
	if len(pools) == 0 {
		fmt.Fprintf(w, "no pools registered for chain %d\n", chainID)
	}
	return w.Flush()
}

// redactDSN hides the password of a URL-style DSN; other forms are hidden entirely.
func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
