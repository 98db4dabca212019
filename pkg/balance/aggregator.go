package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultRatePerMinute keeps under the multiaddr limit of 159 requests
	// per 5 minutes
	DefaultRatePerMinute = 159.0 / 5

	// DefaultConcurrency is the number of batches in flight at once
	DefaultConcurrency = 4
)

// AggregatorConfig holds the batching and rate limiting settings
type AggregatorConfig struct {
	BatchSize   int
	Concurrency int

	// RatePerMinute caps lookups per minute, zero or less disables the cap
	RatePerMinute float64
	Burst         int
}

// Summary is the outcome of a successful Total
type Summary struct {
	Addresses int
	Batches   int
	Satoshis  int64

	// Balances holds the balance of every queried address
	Balances Balances
}

// BTC returns the total in bitcoins
func (s *Summary) BTC() float64 {
	return ToBTC(s.Satoshis)
}

// Aggregator totals the balances of many addresses through a Lookup,
// splitting them into rate limited batches
type Aggregator struct {
	lookup  Lookup
	cfg     AggregatorConfig
	limiter *rate.Limiter
	log     log.Logger
	metrics *Metrics
}

// NewAggregator creates an Aggregator over lookup
func NewAggregator(lookup Lookup, cfg AggregatorConfig, logger log.Logger, metrics *Metrics) *Aggregator {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Duration(float64(time.Minute) / cfg.RatePerMinute))
	}

	return &Aggregator{
		lookup:  lookup,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     logger,
		metrics: metrics,
	}
}

// Total looks up every distinct address in addrs and returns the sum of
// their balances. The sum is only returned once every batch succeeded; the
// first failing batch cancels the rest and fails the call.
func (a *Aggregator) Total(ctx context.Context, addrs []string) (*Summary, error) {
	unique := Dedup(addrs)
	batches := Partition(unique, a.cfg.BatchSize)

	a.log.Debug("Looking up balances",
		"addresses", len(unique), "batches", len(batches), "batchSize", a.cfg.BatchSize)

	results := make([]Balances, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			if err := a.limiter.Wait(gctx); err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}

			balances, err := a.lookup.Balances(gctx, batch)
			if err != nil {
				a.metrics.BatchFailures.Inc()
				return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}

			// Only the addresses of this batch count, each once.
			folded := make(Balances, len(batch))
			for _, addr := range batch {
				folded[addr] = balances[addr]
			}
			results[i] = folded

			a.metrics.Batches.Inc()
			a.metrics.Addresses.Add(float64(len(batch)))
			a.log.Debug("Batch done", "batch", i+1, "of", len(batches), "addresses", len(batch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Addresses: len(unique),
		Batches:   len(batches),
		Balances:  make(Balances, len(unique)),
	}
	for _, folded := range results {
		for addr, sat := range folded {
			summary.Balances[addr] = sat
			summary.Satoshis += sat
		}
	}
	a.metrics.TotalSatoshis.Set(float64(summary.Satoshis))

	return summary, nil
}
