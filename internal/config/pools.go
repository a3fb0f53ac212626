package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"swapscope/internal/dex"
)

// PoolsConfig holds configuration for the pools command.
type PoolsConfig struct {
	RPCURL   string
	Base     string
	Quote    string
	Fee      string
	Factory  string
	PGDSN    string
	Meta     bool
	// List reads pools back from the registry instead of the factory.
	List     bool
	LogLevel string
}

// LoadPools merges config file, environment variables, and flags into PoolsConfig.
func LoadPools(cfgFile string, flags *pflag.FlagSet) (PoolsConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"factory":   dex.DefaultFactoryAddress,
		"log-level": "info",
	})
	if err != nil {
		return PoolsConfig{}, err
	}

	return PoolsConfig{
		RPCURL:   v.GetString("rpc"),
		Base:     v.GetString("base"),
		Quote:    v.GetString("quote"),
		Fee:      v.GetString("fee"),
		Factory:  v.GetString("factory"),
		PGDSN:    v.GetString("pg-dsn"),
		Meta:     v.GetBool("meta"),
		List:     v.GetBool("list"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func (c PoolsConfig) Validate() error {
	if c.RPCURL == "" {
		return invalid("rpc is required")
	}
	if c.List {
		if c.PGDSN == "" {
			return invalid("list requires pg-dsn")
		}
		return nil
	}
	if c.Base == "" || c.Quote == "" {
		return invalid("base and quote tokens are required")
	}
	if _, err := dex.ParseFeeTier(c.Fee); err != nil {
		return err
	}
	if !isAddress(c.Factory) {
		return invalid("factory %q is not an address", c.Factory)
	}
	return nil
}

func isAddress(s string) bool {
	return common.IsHexAddress(s)
}
