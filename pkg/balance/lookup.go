// Package balance looks up and totals the balances of wallet addresses.
package balance

import (
	"context"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
)

// DefaultBatchSize is the number of addresses sent in one multiaddr call
const DefaultBatchSize = 200

// Balances maps an address to its final balance in satoshis
type Balances map[string]int64

// Lookup returns the final balance of a bounded set of addresses
type Lookup interface {
	Balances(ctx context.Context, addrs []string) (Balances, error)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc func(ctx context.Context, addrs []string) (Balances, error)

// Balances calls f
func (f LookupFunc) Balances(ctx context.Context, addrs []string) (Balances, error) {
	return f(ctx, addrs)
}

// ToBTC converts satoshis to bitcoins
func ToBTC(sat int64) float64 {
	return btcutil.Amount(sat).ToBTC()
}

// FormatBTC renders satoshis as a bitcoin amount without trailing zeros
func FormatBTC(sat int64) string {
	return strconv.FormatFloat(ToBTC(sat), 'f', -1, 64)
}
