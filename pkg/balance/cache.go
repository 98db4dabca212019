package balance

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/walletscan/pkg/database"
)

// CachePrefix prefixes every balance entry in the store
var CachePrefix = []byte("bal/")

const entrySize = 16

// CacheEntry is a cached balance
type CacheEntry struct {
	Address   string
	Satoshis  int64
	FetchedAt time.Time
}

// CachedLookup serves balances from a store and only forwards stale or
// unknown addresses to the wrapped Lookup
type CachedLookup struct {
	next    Lookup
	store   database.Store
	ttl     time.Duration
	log     log.Logger
	metrics *Metrics

	now func() time.Time
}

// NewCachedLookup wraps next with a cache in store. Entries older than ttl
// are refetched; a ttl of zero or less keeps entries forever.
func NewCachedLookup(next Lookup, store database.Store, ttl time.Duration, logger log.Logger, metrics *Metrics) *CachedLookup {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &CachedLookup{
		next:    next,
		store:   store,
		ttl:     ttl,
		log:     logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Balances implements Lookup
func (c *CachedLookup) Balances(ctx context.Context, addrs []string) (Balances, error) {
	out := make(Balances, len(addrs))
	var missing []string

	now := c.now()
	for _, addr := range addrs {
		entry, err := c.get(addr)
		switch {
		case err == nil && (c.ttl <= 0 || now.Sub(entry.FetchedAt) < c.ttl):
			out[addr] = entry.Satoshis
			c.metrics.CacheHits.Inc()
		case err == nil || errors.Is(err, database.ErrNotFound):
			missing = append(missing, addr)
			c.metrics.CacheMisses.Inc()
		default:
			c.log.Warn("Unreadable cache entry, refetching", "address", addr, "error", err)
			missing = append(missing, addr)
			c.metrics.CacheMisses.Inc()
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.Balances(ctx, missing)
	if err != nil {
		return nil, err
	}

	for _, addr := range missing {
		sat := fetched[addr]
		out[addr] = sat
		if err := c.put(CacheEntry{Address: addr, Satoshis: sat, FetchedAt: now}); err != nil {
			return nil, fmt.Errorf("failed to cache balance of %s: %w", addr, err)
		}
	}
	return out, nil
}

func (c *CachedLookup) get(addr string) (CacheEntry, error) {
	value, err := c.store.Get(cacheKey(addr))
	if err != nil {
		return CacheEntry{}, err
	}
	return decodeEntry(addr, value)
}

func (c *CachedLookup) put(entry CacheEntry) error {
	return c.store.Put(cacheKey(entry.Address), encodeEntry(entry))
}

// CacheEntries lists every balance cached in store
func CacheEntries(store database.Store) ([]CacheEntry, error) {
	var entries []CacheEntry
	err := store.Iterate(CachePrefix, func(key, value []byte) error {
		entry, err := decodeEntry(string(key[len(CachePrefix):]), value)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

func cacheKey(addr string) []byte {
	return append(append([]byte(nil), CachePrefix...), addr...)
}

func encodeEntry(e CacheEntry) []byte {
	buf := make([]byte, entrySize)
	binary.BigEndian.PutUint64(buf[:8], uint64(e.Satoshis))
	binary.BigEndian.PutUint64(buf[8:], uint64(e.FetchedAt.UnixNano()))
	return buf
}

func decodeEntry(addr string, value []byte) (CacheEntry, error) {
	if len(value) != entrySize {
		return CacheEntry{}, fmt.Errorf("cache entry for %s has %d bytes, want %d", addr, len(value), entrySize)
	}
	return CacheEntry{
		Address:   addr,
		Satoshis:  int64(binary.BigEndian.Uint64(value[:8])),
		FetchedAt: time.Unix(0, int64(binary.BigEndian.Uint64(value[8:]))),
	}, nil
}
