package configs

import (
	"sort"
	"strings"

	"github.com/luxfi/walletscan/pkg/core"
)

const (
	// DefaultNetwork is used when no network is configured
	DefaultNetwork = "mainnet"

	// BlockchainInfoMultiAddr is the public multiaddr endpoint of blockchain.info
	BlockchainInfoMultiAddr = "https://blockchain.info/multiaddr"
)

// Networks maps network names to their configurations
var Networks = map[string]*core.Network{
	"mainnet": {
		Name:            "mainnet",
		AddrVersion:     0x00,
		BalanceEndpoint: BlockchainInfoMultiAddr,
	},
	"testnet": {
		Name:        "testnet",
		AddrVersion: 0x6f,
	},
}

// GetNetwork returns the configuration of a network by name
func GetNetwork(name string) (*core.Network, error) {
	if name == "" {
		name = DefaultNetwork
	}
	if n, exists := Networks[strings.ToLower(name)]; exists {
		return n, nil
	}
	return nil, core.ErrInvalidConfigf("unknown network %q (known: %s)",
		name, strings.Join(NetworkNames(), ", "))
}

// NetworkNames returns the sorted names of all known networks
func NetworkNames() []string {
	names := make([]string, 0, len(Networks))
	for name := range Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
