package balance_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luxfi/walletscan/pkg/balance"
)

// recordingLookup answers every address with a fixed balance and records
// the batches it was asked for.
type recordingLookup struct {
	mu      sync.Mutex
	batches [][]string
	balance int64
	fail    func(batch []string) error
	extra   balance.Balances
}

func (r *recordingLookup) Balances(_ context.Context, addrs []string) (balance.Balances, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]string(nil), addrs...))
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(addrs); err != nil {
			return nil, err
		}
	}

	out := balance.Balances{}
	for _, a := range addrs {
		out[a] = r.balance
	}
	for a, v := range r.extra {
		out[a] = v
	}
	return out, nil
}

var _ = Describe("Aggregator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("sums every batch exactly once", func() {
		lookup := &recordingLookup{balance: 1000}
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{BatchSize: 200, Concurrency: 3}, nil, nil)

		summary, err := agg.Total(ctx, addresses(1001))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Batches).To(Equal(6))
		Expect(summary.Addresses).To(Equal(1001))
		Expect(summary.Satoshis).To(Equal(int64(1001 * 1000)))
		Expect(summary.BTC()).To(BeNumerically("~", 0.01001, 1e-12))

		Expect(lookup.batches).To(HaveLen(6))
		seen := map[string]int{}
		for _, b := range lookup.batches {
			Expect(len(b)).To(BeNumerically("<=", 200))
			for _, a := range b {
				seen[a]++
			}
		}
		Expect(seen).To(HaveLen(1001))
		for _, n := range seen {
			Expect(n).To(Equal(1))
		}
	})

	It("deduplicates addresses before querying", func() {
		lookup := &recordingLookup{balance: 5}
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{BatchSize: 2}, nil, nil)

		summary, err := agg.Total(ctx, []string{"a", "b", "a", "c", "b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Addresses).To(Equal(3))
		Expect(summary.Satoshis).To(Equal(int64(15)))
		Expect(lookup.batches).To(ConsistOf([]string{"a", "b"}, []string{"c"}))
	})

	It("ignores addresses the batch did not ask for", func() {
		lookup := &recordingLookup{balance: 7, extra: balance.Balances{"stranger": 1_000_000}}
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{}, nil, nil)

		summary, err := agg.Total(ctx, []string{"a", "b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Satoshis).To(Equal(int64(14)))
		Expect(summary.Balances).NotTo(HaveKey("stranger"))
	})

	It("counts missing addresses as zero", func() {
		lookup := balance.LookupFunc(func(_ context.Context, addrs []string) (balance.Balances, error) {
			return balance.Balances{addrs[0]: 42}, nil
		})
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{BatchSize: 3}, nil, nil)

		summary, err := agg.Total(ctx, addresses(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Satoshis).To(Equal(int64(42)))
		Expect(summary.Balances).To(HaveLen(3))
	})

	It("fails the whole total when one batch fails", func() {
		boom := errors.New("boom")
		lookup := &recordingLookup{
			balance: 1,
			fail: func(batch []string) error {
				if batch[0] == "addr-002" {
					return boom
				}
				return nil
			},
		}
		reg := prometheus.NewRegistry()
		metrics := balance.NewMetrics(reg)
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{BatchSize: 2, Concurrency: 1}, nil, metrics)

		summary, err := agg.Total(ctx, addresses(6))
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("batch 2/3"))
		Expect(summary).To(BeNil())
		Expect(testutil.ToFloat64(metrics.BatchFailures)).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.TotalSatoshis)).To(Equal(0.0))
	})

	It("never runs more batches at once than allowed", func() {
		var inFlight, peak int32
		release := make(chan struct{})
		lookup := balance.LookupFunc(func(_ context.Context, addrs []string) (balance.Balances, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&inFlight, -1)
			return balance.Balances{}, nil
		})
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{BatchSize: 1, Concurrency: 2}, nil, nil)

		done := make(chan error, 1)
		go func() {
			_, err := agg.Total(ctx, addresses(6))
			done <- err
		}()

		Eventually(func() int32 { return atomic.LoadInt32(&inFlight) }).Should(Equal(int32(2)))
		close(release)
		Eventually(done).Should(Receive(BeNil()))
		Expect(atomic.LoadInt32(&peak)).To(Equal(int32(2)))
	})

	It("stops waiting for the rate limiter when the context is cancelled", func() {
		lookup := &recordingLookup{balance: 1}
		agg := balance.NewAggregator(lookup, balance.AggregatorConfig{
			BatchSize:     1,
			Concurrency:   1,
			RatePerMinute: 0.001,
		}, nil, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := agg.Total(cctx, addresses(3))
		Expect(err).To(HaveOccurred())
	})

	It("reports counts to the metrics", func() {
		reg := prometheus.NewRegistry()
		metrics := balance.NewMetrics(reg)
		agg := balance.NewAggregator(&recordingLookup{balance: 2}, balance.AggregatorConfig{BatchSize: 10}, nil, metrics)

		_, err := agg.Total(ctx, addresses(25))
		Expect(err).NotTo(HaveOccurred())
		Expect(testutil.ToFloat64(metrics.Batches)).To(Equal(3.0))
		Expect(testutil.ToFloat64(metrics.Addresses)).To(Equal(25.0))
		Expect(testutil.ToFloat64(metrics.TotalSatoshis)).To(Equal(50.0))
	})
})
