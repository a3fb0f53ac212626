package chain

import "testing"

func TestSupportsSubscriptions(t *testing.T) {
	cases := map[string]bool{
		"wss://eth-mainnet.example/v2/key": true,
		"ws://127.0.0.1:8546":              true,
		"https://eth.example":              false,
		"HTTP://127.0.0.1:8545":            false,
		"/var/run/geth.ipc":                true,
		"":                                 false,
	}
	for url, want := range cases {
		if got := SupportsSubscriptions(url); got != want {
			t.Fatalf("%q: got %v want %v", url, got, want)
		}
	}
}
