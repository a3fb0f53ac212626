package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapscope/internal/chain"
	"swapscope/internal/config"
	"swapscope/internal/dex"
	"swapscope/internal/feed"
	"swapscope/internal/metrics"
	"swapscope/internal/model"
	"swapscope/internal/monitor"
	"swapscope/internal/sink"
	"swapscope/internal/storage/postgres"
	"swapscope/internal/tokens"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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

	pair, err := tokens.NewRegistry(chainClient, logger).ResolvePair(ctx, cfg.Base, cfg.Quote)
	if err != nil {
		return err
	}

	addresses, err := watchAddresses(ctx, cfg, chainClient, pair, logger)
	if err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		if err := registerPools(ctx, cfg.PGDSN, chainClient, addresses, logger); err != nil {
			logger.Warn("pool registry update failed", zap.Error(err))
		}
	}

	out, closeSinks, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New("swapscope")
		m.Registry().MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, m); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	pools := make([]monitor.Pool, 0, len(addresses))
	for _, addr := range addresses {
		pool, err := dex.NewPool(addr, chainClient, dex.PoolConfig{
			Poll: feed.PollConfig{
				Interval:     cfg.PollInterval,
				BatchSize:    cfg.BatchSize,
				MaxRetries:   cfg.MaxRetries,
				RetryBackoff: cfg.RetryBackoff,
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}
		pools = append(pools, pool)
	}

	mon, err := monitor.New(monitor.Config{
		Pair:    pair,
		Sink:    out,
		Metrics: m,
		Logger:  logger,
		Places:  cfg.Places,
	})
	if err != nil {
		return err
	}

	logger.Info("watch start",
		zap.String("pair", pair.String()),
		zap.Int("pools", len(pools)),
		zap.Bool("push", chainClient.SupportsSubscriptions()),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	var outcomes []monitor.Outcome
	if len(pools) == 1 {
		outcomes = []monitor.Outcome{mon.RunSingle(ctx, pools[0])}
	} else {
		outcomes = mon.RunMany(ctx, pools).Wait()
	}
	return summarize(outcomes)
}

func watchAddresses(ctx context.Context, cfg config.WatchConfig, client *chain.Client, pair model.TokenPair, logger *zap.Logger) ([]common.Address, error) {
	if len(cfg.Pools) > 0 {
		return config.ParseAddresses(cfg.Pools)
	}
	factory := dex.NewFactory(common.HexToAddress(cfg.Factory), client, logger)
	addresses, err := factory.ResolvePoolAddresses(ctx, pair, cfg.Fee)
	if err != nil {
		return nil, err
	}
	for _, addr := range addresses {
		logger.Info("pool resolved", zap.String("pair", pair.String()), zap.String("pool", addr.Hex()))
	}
	return addresses, nil
}

func buildSink(ctx context.Context, cfg config.WatchConfig, logger *zap.Logger) (sink.Sink, func(), error) {
	var (
		sinks   sink.Multi
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close sink failed", zap.Error(err))
			}
		}
	}

	if cfg.Out != "" {
		jsonl, err := sink.OpenJSONL(cfg.Out)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, jsonl)
		closers = append(closers, jsonl.Close)
	}
	if cfg.LogRecords {
		sinks = append(sinks, sink.NewLog(logger))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := sink.NewKafka(sink.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		sinks = append(sinks, kafkaSink)
		closers = append(closers, kafkaSink.Close)
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			closeAll()
			return nil, func() {}, fmt.Errorf("connect redis: %w", err)
		}
		sinks = append(sinks, sink.NewRedis(client, cfg.RedisChannel))
		closers = append(closers, client.Close)
	}

	if len(sinks) == 0 {
		return nil, closeAll, fmt.Errorf("%w: no output configured", config.ErrInvalid)
	}
	if len(sinks) == 1 {
		return sinks[0], closeAll, nil
	}
	return sinks, closeAll, nil
}

func registerPools(ctx context.Context, dsn string, client *chain.Client, addresses []common.Address, logger *zap.Logger) error {
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	records := make([]model.Pool, 0, len(addresses))
	for _, addr := range addresses {
		meta, err := dex.FetchPoolMeta(ctx, client, addr)
		if err != nil {
			return fmt.Errorf("pool %s: %w", addr.Hex(), err)
		}
		meta.ChainID = chainID.Uint64()
		records = append(records, meta)
	}

	store, err := postgres.NewStore(ctx, dsn)
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
	logger.Info("pools registered", zap.Int("count", len(records)))
	return nil
}

func summarize(outcomes []monitor.Outcome) error {
	var errs []error
	for _, out := range outcomes {
		if out.Status == monitor.StatusFailed {
			errs = append(errs, fmt.Errorf("pool %s: %w", out.Pool.Hex(), out.Err))
		}
	}
	return errors.Join(errs...)
}
