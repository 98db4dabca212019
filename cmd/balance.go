package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/balance"
	"github.com/luxfi/walletscan/pkg/core"
	"github.com/luxfi/walletscan/pkg/database"
	"github.com/luxfi/walletscan/pkg/inspect"
)

// NewBalanceCmd creates the balance command
func NewBalanceCmd(app *application.App, v *viper.Viper) *cobra.Command {
	var (
		verbose     bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "balance [wallet-file]",
		Short: "Report the balance held by the keys of a wallet",
		Long: `Scan the key pool of a wallet.dat file, derive the address of every key
and sum their final balances from the multiaddr API.

Examples:
  walletscan balance ~/.bitcoin/wallet.dat
  walletscan balance --cache leveldb wallet.dat
  walletscan balance --batch-size 100 --rate 20 wallet.dat`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			report, err := inspect.New(app).Wallet(path)
			if err != nil {
				return err
			}

			metrics := balance.NewMetrics(app.Registry)
			lookup, closeLookup, err := newLookup(app, v, metrics)
			if err != nil {
				return err
			}
			defer closeLookup()

			agg := balance.NewAggregator(lookup, balance.AggregatorConfig{
				BatchSize:     v.GetInt(keyBalanceBatchSize),
				Concurrency:   v.GetInt(keyBalanceConcurrency),
				RatePerMinute: v.GetFloat64(keyBalanceRate),
			}, app.Log, metrics)

			start := time.Now()
			summary, err := agg.Total(cmd.Context(), report.Addresses)
			if err != nil {
				return fmt.Errorf("failed to look up balances: %w", err)
			}
			app.Log.Info("Balances looked up",
				"addresses", summary.Addresses,
				"batches", summary.Batches,
				"satoshis", summary.Satoshis,
				"elapsed", time.Since(start))

			out := cmd.OutOrStdout()
			if verbose {
				printFunded(out, summary.Balances)
			}
			fmt.Fprintf(out, "Final balance for \"%s\": %s\n", path, balance.FormatBTC(summary.Satoshis))

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, app.Registry); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("endpoint", "", "multiaddr endpoint (default depends on --network)")
	flags.Int("batch-size", balance.DefaultBatchSize, "addresses per request")
	flags.Int("concurrency", balance.DefaultConcurrency, "requests in flight at once")
	flags.Float64("rate", balance.DefaultRatePerMinute, "maximum requests per minute, 0 for no limit")
	flags.Duration("timeout", balance.DefaultTimeout, "timeout of a single request")
	flags.Uint("max-retries", balance.DefaultMaxRetries, "retries of a failed request")
	flags.String("cache", "none", "balance cache backend (none, auto, leveldb, pebble, badger, memory)")
	flags.String("cache-path", "", "balance cache directory (default is <base-dir>/cache)")
	flags.Duration("cache-ttl", time.Hour, "age after which cached balances are refetched, 0 keeps them forever")
	flags.BoolVarP(&verbose, "verbose", "v", false, "list every funded address")
	flags.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	mustBind(v, keyBalanceEndpoint, flags.Lookup("endpoint"))
	mustBind(v, keyBalanceBatchSize, flags.Lookup("batch-size"))
	mustBind(v, keyBalanceConcurrency, flags.Lookup("concurrency"))
	mustBind(v, keyBalanceRate, flags.Lookup("rate"))
	mustBind(v, keyBalanceTimeout, flags.Lookup("timeout"))
	mustBind(v, keyBalanceMaxRetries, flags.Lookup("max-retries"))
	mustBind(v, keyCacheBackend, flags.Lookup("cache"))
	mustBind(v, keyCachePath, flags.Lookup("cache-path"))
	mustBind(v, keyCacheTTL, flags.Lookup("cache-ttl"))

	return cmd
}

// newLookup builds the multiaddr client, wrapped in a cache when one is
// configured. The returned func releases the cache.
func newLookup(app *application.App, v *viper.Viper, metrics *balance.Metrics) (balance.Lookup, func(), error) {
	endpoint := v.GetString(keyBalanceEndpoint)
	if endpoint == "" {
		if err := app.Network.ValidateForLookup(); err != nil {
			return nil, nil, err
		}
		endpoint = app.Network.BalanceEndpoint
	}

	var lookup balance.Lookup = balance.NewMultiAddrClient(balance.ClientConfig{
		Endpoint:   endpoint,
		Timeout:    v.GetDuration(keyBalanceTimeout),
		MaxRetries: v.GetUint(keyBalanceMaxRetries),
	}, app.Log, metrics)

	store, err := openCache(app, v)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return lookup, func() {}, nil
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			app.Log.Warn("Failed to close balance cache", "error", err)
		}
	}
	return balance.NewCachedLookup(lookup, store, v.GetDuration(keyCacheTTL), app.Log, metrics), closeStore, nil
}

// openCache opens the configured balance cache, or returns nil when the
// cache is disabled
func openCache(app *application.App, v *viper.Viper) (database.Store, error) {
	backend := v.GetString(keyCacheBackend)
	if backend == "" || backend == "none" {
		return nil, nil
	}

	dbType, err := database.ParseType(backend)
	if err != nil {
		return nil, core.ErrInvalidConfigf("invalid cache backend: %v", err)
	}

	path := v.GetString(keyCachePath)
	if path == "" {
		path = app.GetCacheDir()
	}

	store, err := database.Open(dbType, path)
	if err != nil {
		return nil, err
	}
	app.Log.Debug("Opened balance cache", "backend", dbType, "path", path)
	return store, nil
}

func printFunded(out io.Writer, balances balance.Balances) {
	addrs := make([]string, 0, len(balances))
	for addr, sat := range balances {
		if sat != 0 {
			addrs = append(addrs, addr)
		}
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Fprintf(out, "%-35s %s\n", addr, balance.FormatBTC(balances[addr]))
	}
}
