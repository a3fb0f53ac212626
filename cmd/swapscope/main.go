package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapscope/internal/dex"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "swapscope",
		Short:        "Uniswap V3 swap price monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream swap prices for a token pair",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "Ethereum RPC URL (ws/wss/ipc push, http/https polls)")
	watchCmd.Flags().String("base", "", "base token symbol or address")
	watchCmd.Flags().String("quote", "", "quote token symbol or address")
	watchCmd.Flags().String("fee", "", "fee tier in basis points (1, 5, 30, 100); empty watches every tier")
	watchCmd.Flags().StringSlice("pool", nil, "explicit pool addresses (comma-separated), bypasses the factory")
	watchCmd.Flags().String("factory", dex.DefaultFactoryAddress, "V3 factory address")
	watchCmd.Flags().String("out", "-", "JSONL output path, - for stdout, empty to disable")
	watchCmd.Flags().Bool("log-records", false, "also log every price record")
	watchCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	watchCmd.Flags().String("kafka-topic", "", "Kafka topic for price records")
	watchCmd.Flags().String("redis-addr", "", "Redis address for pub/sub")
	watchCmd.Flags().String("redis-channel", "swapscope:prices", "Redis pub/sub channel")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN for the pool registry")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().Int32("places", 18, "fractional digits in emitted prices")
	watchCmd.Flags().Duration("poll-interval", 4*time.Second, "head polling interval for http endpoints")
	watchCmd.Flags().Uint64("batch-size", 2000, "max blocks per eth_getLogs call when polling")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts per RPC call when polling")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Resolve the V3 pools for a token pair",
		RunE:  runPools,
	}

	poolsCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	poolsCmd.Flags().String("base", "", "base token symbol or address")
	poolsCmd.Flags().String("quote", "", "quote token symbol or address")
	poolsCmd.Flags().String("fee", "", "fee tier in basis points (1, 5, 30, 100); empty lists every tier")
	poolsCmd.Flags().String("factory", dex.DefaultFactoryAddress, "V3 factory address")
	poolsCmd.Flags().Bool("meta", false, "load token0/token1, tick spacing and current price")
	poolsCmd.Flags().String("pg-dsn", "", "Postgres DSN; upserts resolved pools when set")
	poolsCmd.Flags().Bool("list", false, "list pools registered in Postgres for the rpc's chain")
	poolsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Convert a sqrtPriceX96 value into a decimal price",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "Ethereum RPC URL, only needed for tokens given by unknown address")
	priceCmd.Flags().String("base", "", "base token symbol or address")
	priceCmd.Flags().String("quote", "", "quote token symbol or address")
	priceCmd.Flags().String("token0", "", "pool token0 (symbol or address)")
	priceCmd.Flags().String("sqrt-price", "", "sqrtPriceX96 (decimal or 0x hex)")
	priceCmd.Flags().Int32("places", 18, "fractional digits")
	priceCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
