package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"swapscope/internal/dex"
)

func watchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.String("env-file", "", "")
	fs.String("rpc", "", "")
	fs.String("base", "", "")
	fs.String("quote", "", "")
	fs.String("fee", "", "")
	fs.StringSlice("pool", nil, "")
	fs.StringSlice("kafka-brokers", nil, "")
	fs.String("kafka-topic", "", "")
	fs.Int32("places", 18, "")
	fs.Duration("poll-interval", 4*time.Second, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoadWatchDefaults(t *testing.T) {
	cfg, err := LoadWatch("", watchFlags(t, "--rpc", "wss://node", "--base", "WETH", "--quote", "USDC"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "wss://node" || cfg.Base != "WETH" || cfg.Quote != "USDC" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Factory != dex.DefaultFactoryAddress || cfg.Out != "-" || cfg.Places != 18 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.PollInterval != 4*time.Second || cfg.BatchSize != 2000 || cfg.MaxRetries != 5 {
		t.Fatalf("poll defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadWatchEnvOverride(t *testing.T) {
	t.Setenv("SWAPSCOPE_RPC", "https://env-node")
	t.Setenv("SWAPSCOPE_POOL", "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640, 0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
	t.Setenv("SWAPSCOPE_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWatch("", watchFlags(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://env-node" {
		t.Fatalf("env rpc not applied: %q", cfg.RPCURL)
	}
	if len(cfg.Pools) != 2 || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("env slices not split: %v %v", cfg.Pools, cfg.KafkaBrokers)
	}

	cfg, err = LoadWatch("", watchFlags(t, "--rpc", "wss://flag-node"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "wss://flag-node" {
		t.Fatalf("flag should win over env: %q", cfg.RPCURL)
	}
}

func TestLoadWatchConfigFileAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "swapscope.yaml")
	if err := os.WriteFile(cfgPath, []byte("rpc: wss://file-node\nbase: WBTC\nquote: USDT\nfee: \"5\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SWAPSCOPE_KAFKA_TOPIC=prices-from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SWAPSCOPE_KAFKA_TOPIC") })

	cfg, err := LoadWatch(cfgPath, watchFlags(t, "--env-file", envPath))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "wss://file-node" || cfg.Base != "WBTC" || cfg.Fee != "5" {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.KafkaTopic != "prices-from-dotenv" {
		t.Fatalf(".env not applied: %q", cfg.KafkaTopic)
	}
}

func TestWatchValidate(t *testing.T) {
	valid := WatchConfig{
		RPCURL:    "wss://node",
		Base:      "WETH",
		Quote:     "USDC",
		Factory:   dex.DefaultFactoryAddress,
		Places:    18,
		BatchSize: 2000,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*WatchConfig){
		"missing rpc":     func(c *WatchConfig) { c.RPCURL = "" },
		"missing quote":   func(c *WatchConfig) { c.Quote = "" },
		"bad pool":        func(c *WatchConfig) { c.Pools = []string{"0x123"} },
		"bad factory":     func(c *WatchConfig) { c.Factory = "uniswap" },
		"kafka no topic":  func(c *WatchConfig) { c.KafkaBrokers = []string{"k:9092"} },
		"zero places":     func(c *WatchConfig) { c.Places = 0 },
		"zero batch size": func(c *WatchConfig) { c.BatchSize = 0 },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}

	cfg := valid
	cfg.Fee = "700"
	if err := cfg.Validate(); !errors.Is(err, dex.ErrUnknownFeeTier) {
		t.Fatalf("expected ErrUnknownFeeTier, got %v", err)
	}

	cfg.Pools = []string{"0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("explicit pools bypass the fee selector: %v", err)
	}
}

func TestPoolsAndPriceValidate(t *testing.T) {
	pools := PoolsConfig{RPCURL: "https://node", Base: "WETH", Quote: "USDC", Fee: "30", Factory: dex.DefaultFactoryAddress}
	if err := pools.Validate(); err != nil {
		t.Fatalf("pools: %v", err)
	}
	pools.Fee = "2"
	if err := pools.Validate(); !errors.Is(err, dex.ErrUnknownFeeTier) {
		t.Fatalf("expected ErrUnknownFeeTier, got %v", err)
	}

	listing := PoolsConfig{RPCURL: "https://node", List: true}
	if err := listing.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("list without pg-dsn: expected ErrInvalid, got %v", err)
	}
	listing.PGDSN = "postgres://db/swapscope"
	if err := listing.Validate(); err != nil {
		t.Fatalf("list needs no pair: %v", err)
	}

	price := PriceConfig{Base: "WETH", Quote: "USDC", Token0: "USDC", Sqrt: "1771595571142957166518320255467520", Places: 6}
	if err := price.Validate(); err != nil {
		t.Fatalf("price: %v", err)
	}
	price.Sqrt = "12abc"
	if err := price.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseAddresses(t *testing.T) {
	addrs, err := ParseAddresses([]string{" 0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640 ", "", "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}

	if _, err := ParseAddresses([]string{"not-an-address"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	dup := "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"
	if _, err := ParseAddresses([]string{dup, "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestParseSqrtPrice(t *testing.T) {
	v, err := ParseSqrtPrice("79228162514264337593543950336")
	if err != nil || v.String() != "79228162514264337593543950336" {
		t.Fatalf("decimal parse: %v %v", v, err)
	}
	v, err = ParseSqrtPrice("0x1000000000000000000000000")
	if err != nil || v.String() != "79228162514264337593543950336" {
		t.Fatalf("hex parse: %v %v", v, err)
	}
	if _, err := ParseSqrtPrice(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty input, got %v", err)
	}
}
