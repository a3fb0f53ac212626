package model

// Pool is a resolved V3 pool record for the pool registry.
type Pool struct {
	ChainID     uint64 `json:"chain_id"`
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}
