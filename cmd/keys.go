package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/walletscan/pkg/address"
	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/inspect"
)

// KeyInfo is one key pool entry as printed by the keys command
type KeyInfo struct {
	Index   int    `json:"index"`
	PubKey  string `json:"pubKey"`
	Address string `json:"address"`
}

// NewKeysCmd creates the keys command
func NewKeysCmd(app *application.App) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "keys [wallet-file]",
		Short: "List the public keys found in the key pool of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspect.New(app).Wallet(args[0])
			if err != nil {
				return err
			}

			infos := make([]KeyInfo, len(report.Keys))
			for i, key := range report.Keys {
				infos[i] = KeyInfo{
					Index:   i,
					PubKey:  hex.EncodeToString(key),
					Address: address.FromPubKeyVersion(key, app.Network.AddrVersion),
				}
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%d\t%s\t%s\n", info.Index, info.PubKey, info.Address)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// NewAddressesCmd creates the addresses command
func NewAddressesCmd(app *application.App) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "addresses [wallet-file]",
		Short: "List the distinct addresses of the keys of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspect.New(app).Wallet(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				addrs := report.Addresses
				if addrs == nil {
					addrs = []string{}
				}
				return json.NewEncoder(out).Encode(addrs)
			}
			for _, addr := range report.Addresses {
				fmt.Fprintln(out, addr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}
