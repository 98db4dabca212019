package balance_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luxfi/walletscan/pkg/balance"
	"github.com/luxfi/walletscan/pkg/database"
)

var _ = Describe("CachedLookup", func() {
	var (
		ctx     context.Context
		store   database.Store
		lookup  *recordingLookup
		metrics *balance.Metrics
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = database.OpenMemory()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		lookup = &recordingLookup{balance: 9}
		metrics = balance.NewMetrics(prometheus.NewRegistry())
	})

	It("serves fresh entries from the store", func() {
		cached := balance.NewCachedLookup(lookup, store, time.Hour, nil, metrics)

		first, err := cached.Balances(ctx, []string{"a", "b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(balance.Balances{"a": 9, "b": 9}))

		second, err := cached.Balances(ctx, []string{"a", "b", "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(balance.Balances{"a": 9, "b": 9, "c": 9}))

		Expect(lookup.batches).To(Equal([][]string{{"a", "b"}, {"c"}}))
		Expect(testutil.ToFloat64(metrics.CacheHits)).To(Equal(2.0))
		Expect(testutil.ToFloat64(metrics.CacheMisses)).To(Equal(3.0))
	})

	It("refetches entries older than the ttl", func() {
		cached := balance.NewCachedLookup(lookup, store, time.Minute, nil, metrics)
		_, err := cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())

		later := balance.NewCachedLookup(lookup, store, time.Nanosecond, nil, metrics)
		time.Sleep(2 * time.Millisecond)
		_, err = later.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(lookup.batches).To(HaveLen(2))
	})

	It("keeps the fetch time to the nanosecond", func() {
		before := time.Now()
		cached := balance.NewCachedLookup(lookup, store, time.Hour, nil, metrics)
		_, err := cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())

		entries, err := balance.CacheEntries(store)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].FetchedAt.UnixNano()).To(BeNumerically(">=", before.UnixNano()))
	})

	It("serves a fresh entry under a sub-second ttl", func() {
		cached := balance.NewCachedLookup(lookup, store, 500*time.Millisecond, nil, metrics)
		_, err := cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())

		_, err = cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(lookup.batches).To(HaveLen(1))
	})

	It("caches a missing answer as zero", func() {
		empty := balance.LookupFunc(func(context.Context, []string) (balance.Balances, error) {
			return balance.Balances{}, nil
		})
		cached := balance.NewCachedLookup(empty, store, 0, nil, metrics)

		got, err := cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(balance.Balances{"a": 0}))

		entries, err := balance.CacheEntries(store)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Address).To(Equal("a"))
		Expect(entries[0].Satoshis).To(BeZero())
	})

	It("does not cache failed lookups", func() {
		failing := balance.LookupFunc(func(context.Context, []string) (balance.Balances, error) {
			return nil, errors.New("down")
		})
		cached := balance.NewCachedLookup(failing, store, time.Hour, nil, metrics)

		_, err := cached.Balances(ctx, []string{"a"})
		Expect(err).To(MatchError("down"))

		entries, err := balance.CacheEntries(store)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("refetches unreadable entries", func() {
		Expect(store.Put([]byte("bal/a"), []byte("junk"))).To(Succeed())
		cached := balance.NewCachedLookup(lookup, store, time.Hour, nil, metrics)

		got, err := cached.Balances(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveKeyWithValue("a", int64(9)))
		Expect(lookup.batches).To(HaveLen(1))
	})
})
