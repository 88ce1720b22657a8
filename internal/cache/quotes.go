// Package cache provides the in-memory quote cache with a
// stale-while-revalidate refresh policy.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/logging"
	"stockintel/internal/models"
)

// DefaultQuoteTTL is the freshness window for cached quotes.
const DefaultQuoteTTL = 60 * time.Second

// QuoteFetcher fetches a live quote. The Finnhub client satisfies it.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// IsStale reports whether a quote fetched at fetchedAt has outlived the
// TTL as of now. Pure so the policy is testable without a clock.
func IsStale(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(fetchedAt) >= ttl
}

type entry struct {
	quote     *models.Quote
	fetchedAt time.Time
}

// QuoteCache caches quotes per symbol. A miss fetches synchronously; a
// stale hit returns the cached quote immediately and refreshes in the
// background, so readers never block on the upstream once a symbol has
// been seen. Entries are replaced whole, never mutated in place.
type QuoteCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	refreshing map[string]bool

	fetcher QuoteFetcher
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewQuoteCache creates a quote cache over the fetcher. A non-positive
// ttl falls back to the default.
func NewQuoteCache(fetcher QuoteFetcher, ttl time.Duration, logger zerolog.Logger) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{
		entries:    make(map[string]*entry),
		refreshing: make(map[string]bool),
		fetcher:    fetcher,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// Get returns the quote for a symbol. Fresh entries return directly.
// Stale entries return immediately while one background refresh runs.
// Unknown symbols fetch synchronously.
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*models.Quote, error) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if ok {
		if !IsStale(e.fetchedAt, c.ttl, c.now()) {
			return e.quote, nil
		}
		c.refreshAsync(symbol)
		return e.quote, nil
	}

	return c.fetchAndStore(ctx, symbol)
}

// Peek returns the cached quote and its staleness without any fetch.
func (c *QuoteCache) Peek(symbol string) (*models.Quote, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[symbol]
	if !ok {
		return nil, false, false
	}
	return e.quote, true, IsStale(e.fetchedAt, c.ttl, c.now())
}

// Invalidate drops a symbol's entry so the next Get fetches fresh.
func (c *QuoteCache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// Len returns the number of cached symbols.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QuoteCache) fetchAndStore(ctx context.Context, symbol string) (*models.Quote, error) {
	quote, err := c.fetcher.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.store(symbol, quote)
	return quote, nil
}

// refreshAsync launches at most one background refresh per symbol. The
// stale entry keeps serving until the replacement lands; failures keep
// the stale entry and release the refresh slot for a later attempt.
func (c *QuoteCache) refreshAsync(symbol string) {
	c.mu.Lock()
	if c.refreshing[symbol] {
		c.mu.Unlock()
		return
	}
	c.refreshing[symbol] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, symbol)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		quote, err := c.fetcher.Quote(ctx, symbol)
		logging.LogCacheRefresh(c.logger, 1, symbol, err)
		if err != nil {
			return
		}
		c.store(symbol, quote)
	}()
}

func (c *QuoteCache) store(symbol string, quote *models.Quote) {
	c.mu.Lock()
	c.entries[symbol] = &entry{quote: quote, fetchedAt: c.now()}
	c.mu.Unlock()
}
