package cmd

import (
	"time"

	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/pkg/balance"
)

// Config keys
const (
	keyBalanceEndpoint    = "balance.endpoint"
	keyBalanceBatchSize   = "balance.batch_size"
	keyBalanceConcurrency = "balance.concurrency"
	keyBalanceRate        = "balance.rate_per_minute"
	keyBalanceTimeout     = "balance.timeout"
	keyBalanceMaxRetries  = "balance.max_retries"

	keyCacheBackend = "cache.backend"
	keyCachePath    = "cache.path"
	keyCacheTTL     = "cache.ttl"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault(keyBalanceBatchSize, balance.DefaultBatchSize)
	v.SetDefault(keyBalanceConcurrency, balance.DefaultConcurrency)
	v.SetDefault(keyBalanceRate, balance.DefaultRatePerMinute)
	v.SetDefault(keyBalanceTimeout, balance.DefaultTimeout)
	v.SetDefault(keyBalanceMaxRetries, balance.DefaultMaxRetries)

	v.SetDefault(keyCacheBackend, "none")
	v.SetDefault(keyCacheTTL, time.Hour)
}
