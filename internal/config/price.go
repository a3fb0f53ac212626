package config

import (
	"github.com/spf13/pflag"
)

// PriceConfig holds configuration for the offline price command.
type PriceConfig struct {
	RPCURL   string
	Base     string
	Quote    string
	Token0   string
	Sqrt     string
	Places   int32
	LogLevel string
}

// LoadPrice merges config file, environment variables, and flags into PriceConfig.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"places":    18,
		"log-level": "info",
	})
	if err != nil {
		return PriceConfig{}, err
	}

	return PriceConfig{
		RPCURL:   v.GetString("rpc"),
		Base:     v.GetString("base"),
		Quote:    v.GetString("quote"),
		Token0:   v.GetString("token0"),
		Sqrt:     v.GetString("sqrt-price"),
		Places:   v.GetInt32("places"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func (c PriceConfig) Validate() error {
	if c.Base == "" || c.Quote == "" {
		return invalid("base and quote tokens are required")
	}
	if c.Token0 == "" {
		return invalid("token0 is required")
	}
	if _, err := ParseSqrtPrice(c.Sqrt); err != nil {
		return err
	}
	if c.Places <= 0 {
		return invalid("places must be positive")
	}
	return nil
}
