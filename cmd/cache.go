package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/balance"
	"github.com/luxfi/walletscan/pkg/core"
	"github.com/luxfi/walletscan/pkg/database"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd(app *application.App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the balance cache",
		Long:  "List, clear and copy the balances cached by 'walletscan balance --cache'",
	}

	cmd.PersistentFlags().String("backend", "auto", "cache backend (auto, leveldb, pebble, badger)")
	cmd.PersistentFlags().String("path", "", "cache directory (default is <base-dir>/cache)")

	cmd.AddCommand(newCacheListCmd(app, v))
	cmd.AddCommand(newCacheClearCmd(app, v))
	cmd.AddCommand(newCacheCopyCmd(app, v))

	return cmd
}

// openCacheFromFlags opens the cache named by the cache command flags,
// falling back to the configured one
func openCacheFromFlags(cmd *cobra.Command, app *application.App, v *viper.Viper) (database.Store, error) {
	backend, _ := cmd.Flags().GetString("backend")
	path, _ := cmd.Flags().GetString("path")
	if !cmd.Flags().Changed("backend") {
		if configured := v.GetString(keyCacheBackend); configured != "" && configured != "none" {
			backend = configured
		}
	}
	if path == "" {
		path = v.GetString(keyCachePath)
	}
	if path == "" {
		path = app.GetCacheDir()
	}

	dbType, err := database.ParseType(backend)
	if err != nil {
		return nil, core.ErrInvalidConfigf("invalid cache backend: %v", err)
	}
	return database.Open(dbType, path)
}

func newCacheListCmd(app *application.App, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheFromFlags(cmd, app, v)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := balance.CacheEntries(store)
			if err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}

			out := cmd.OutOrStdout()
			var total int64
			for _, e := range entries {
				fmt.Fprintf(out, "%-35s %-16s %s\n", e.Address, balance.FormatBTC(e.Satoshis), e.FetchedAt.UTC().Format(time.RFC3339))
				total += e.Satoshis
			}
			fmt.Fprintf(out, "\nTotal Entries: %d\n", len(entries))
			fmt.Fprintf(out, "Total Balance: %s\n", balance.FormatBTC(total))
			return nil
		},
	}
}

func newCacheClearCmd(app *application.App, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheFromFlags(cmd, app, v)
			if err != nil {
				return err
			}
			defer store.Close()

			var keys [][]byte
			if err := store.Iterate(balance.CachePrefix, func(key, _ []byte) error {
				keys = append(keys, key)
				return nil
			}); err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}
			for _, key := range keys {
				if err := store.Delete(key); err != nil {
					return fmt.Errorf("failed to delete %s: %w", key, err)
				}
			}

			app.Log.Info("Cleared balance cache", "entries", len(keys))
			return nil
		},
	}
}

func newCacheCopyCmd(app *application.App, v *viper.Viper) *cobra.Command {
	var toBackend, toPath string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy cached balances into another backend",
		Long: `Copy cached balances into another cache directory, possibly using another backend.

Examples:
  walletscan cache copy --to-backend badger --to-path /tmp/cache-badger
  walletscan cache copy --backend pebble --path ./old --to-backend leveldb --to-path ./new`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dstType, err := database.ParseType(toBackend)
			if err != nil {
				return core.ErrInvalidConfigf("invalid destination backend: %v", err)
			}

			src, err := openCacheFromFlags(cmd, app, v)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := database.Open(dstType, toPath)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := database.Copy(dst, src, balance.CachePrefix)
			if err != nil {
				return err
			}

			app.Log.Info("Copied balance cache", "entries", n, "to", toPath, "backend", dstType)
			return nil
		},
	}

	cmd.Flags().StringVar(&toBackend, "to-backend", "leveldb", "destination backend")
	cmd.Flags().StringVar(&toPath, "to-path", "", "destination directory")
	_ = cmd.MarkFlagRequired("to-path")

	return cmd
}
