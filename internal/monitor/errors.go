package monitor

import "errors"

var (
	// ErrResolution means the pool's token0 could not be determined.
	ErrResolution = errors.New("pool resolution failed")
	// ErrConnection means the swap stream could not be opened or ended abnormally.
	ErrConnection = errors.New("swap stream connection failed")
)
