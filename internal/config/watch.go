package config

import (
	"time"

	"github.com/spf13/pflag"

	"swapscope/internal/dex"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	RPCURL  string
	Base    string
	Quote   string
	Fee     string
	Pools   []string
	Factory string

	Out          string
	LogRecords   bool
	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string
	RedisChannel string
	PGDSN        string
	MetricsAddr  string

	Places       int32
	PollInterval time.Duration
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadWatch merges config file, environment variables, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"factory":       dex.DefaultFactoryAddress,
		"out":           "-",
		"redis-channel": "swapscope:prices",
		"places":        18,
		"poll-interval": 4 * time.Second,
		"batch-size":    uint64(2000),
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return WatchConfig{}, err
	}

	return WatchConfig{
		RPCURL:       v.GetString("rpc"),
		Base:         v.GetString("base"),
		Quote:        v.GetString("quote"),
		Fee:          v.GetString("fee"),
		Pools:        getStringSlice(v, "pool"),
		Factory:      v.GetString("factory"),
		Out:          v.GetString("out"),
		LogRecords:   v.GetBool("log-records"),
		KafkaBrokers: getStringSlice(v, "kafka-brokers"),
		KafkaTopic:   v.GetString("kafka-topic"),
		RedisAddr:    v.GetString("redis-addr"),
		RedisChannel: v.GetString("redis-channel"),
		PGDSN:        v.GetString("pg-dsn"),
		MetricsAddr:  v.GetString("metrics-addr"),
		Places:       v.GetInt32("places"),
		PollInterval: v.GetDuration("poll-interval"),
		BatchSize:    v.GetUint64("batch-size"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// Validate reports configuration errors before any connection is opened.
func (c WatchConfig) Validate() error {
	if c.RPCURL == "" {
		return invalid("rpc is required")
	}
	if c.Base == "" || c.Quote == "" {
		return invalid("base and quote tokens are required")
	}
	if len(c.Pools) > 0 {
		if _, err := ParseAddresses(c.Pools); err != nil {
			return err
		}
	} else {
		if _, err := dex.ParseFeeTier(c.Fee); err != nil {
			return err
		}
		if !isAddress(c.Factory) {
			return invalid("factory %q is not an address", c.Factory)
		}
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return invalid("kafka-topic is required with kafka-brokers")
	}
	if c.RedisAddr != "" && c.RedisChannel == "" {
		return invalid("redis-channel is required with redis-addr")
	}
	if c.Places <= 0 {
		return invalid("places must be positive")
	}
	if c.BatchSize == 0 {
		return invalid("batch-size must be positive")
	}
	return nil
}
