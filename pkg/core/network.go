package core

// Network describes the chain a wallet belongs to
type Network struct {
	Name string `json:"name"`

	// AddrVersion is the version byte of pay-to-pubkey-hash addresses
	AddrVersion byte `json:"addr_version"`

	// BalanceEndpoint is the default multiaddr endpoint, if the network has one
	BalanceEndpoint string `json:"balance_endpoint,omitempty"`
}

// Validate ensures the network configuration is valid
func (n *Network) Validate() error {
	if n.Name == "" {
		return ErrInvalidConfig("network name is required")
	}
	return nil
}

// ValidateForLookup ensures the network can be used for balance lookups
func (n *Network) ValidateForLookup() error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.BalanceEndpoint == "" {
		return ErrInvalidConfigf("network %s has no default balance endpoint, set --endpoint", n.Name)
	}
	return nil
}
