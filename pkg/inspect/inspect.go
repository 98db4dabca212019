package inspect

import (
	"errors"
	"os"

	"github.com/luxfi/walletscan/pkg/address"
	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/core"
	"github.com/luxfi/walletscan/pkg/keypool"
)

// Report is what a wallet file yields before any balance lookup
type Report struct {
	Path string

	// Keys holds every key found, in file order, repeats included
	Keys []keypool.RawKey

	// Addresses holds the distinct addresses of Keys, first seen first
	Addresses []string

	Duplicates int
}

// Inspector reads wallet files
type Inspector struct {
	app *application.App
}

// New creates a new Inspector instance
func New(app *application.App) *Inspector {
	return &Inspector{app: app}
}

// Wallet scans the key pool of the wallet file at path and derives the
// address of every key for the configured network
func (i *Inspector) Wallet(path string) (*Report, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, core.FileNotFoundError{Path: path}
	}

	keys, err := keypool.ScanFile(path)
	if err != nil {
		return nil, err
	}

	version := address.MainNetVersion
	if i.app.Network != nil {
		version = i.app.Network.AddrVersion
	}

	report := &Report{Path: path, Keys: keys}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		addr := address.FromPubKeyVersion(key, version)
		if _, dup := seen[addr]; dup {
			report.Duplicates++
			continue
		}
		seen[addr] = struct{}{}
		report.Addresses = append(report.Addresses, addr)
	}

	i.app.Log.Info("Scanned wallet",
		"path", path,
		"keys", len(keys),
		"addresses", len(report.Addresses),
		"duplicates", report.Duplicates)

	return report, nil
}
