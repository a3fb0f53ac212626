package price

import "math/big"

// FormatAmount renders a raw token amount in whole-token units.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}
